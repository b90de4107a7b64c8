// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"github.com/gin-gonic/gin"

	"github.com/mlnoga/pixelqc/internal/ops"
)

func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",      getPing)
			v1.POST("/mask",      postMask)
			v1.POST("/histogram", postHistogram)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if p=="" { return true }
	if filepath.IsAbs(p) { return false }          // relative paths only
	if strings.Contains(p, "..") { return false }  // no going outside the tree
	return true
}

func postMask(c *gin.Context) {
	logWriter := c.Writer
	var args ops.MaskJob
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}
	if !isPathAllowed(args.FileName) || !isPathAllowed(args.MaskFileName) {
		fmt.Fprintf(logWriter, "error: file name outside current directory tree, aborting\n")
		return
	}

	context:=ops.NewContext(logWriter)
	if _, err:=args.Run(context); err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
}

func postHistogram(c *gin.Context) {
	logWriter := c.Writer
	var args ops.HistogramJob
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}
	if !isPathAllowed(args.FileName) || !isPathAllowed(args.MaskFileName) {
		fmt.Fprintf(logWriter, "error: file name outside current directory tree, aborting\n")
		return
	}

	context:=ops.NewContext(logWriter)
	result, h, err:=args.Run(context)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	} else {
		printArgs(logWriter, "Histogram edges:\n", "\n", h.Edges)
		printArgs(logWriter, "Histogram counts:\n", "\n", h.Counts)
		fmt.Fprintf(logWriter, "Fit: %v\n", result)
	}
	logWriter.(http.Flusher).Flush()
}
