package server

import (
	"net/http"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/file"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const dashboardRecentLimit = 10

type dashboardResponse struct {
	Recent []file.Record     `json:"recent"`
	Counts map[file.Type]int `json:"counts"`
	Usage  file.Usage        `json:"usage"`
}

// dashboardHandler loads the recent files and the usage summary concurrently.
// Both are reads, so their order does not matter.
func dashboardHandler(query *file.QueryService, accounting *file.AccountingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, _ := auth.RequireUser(c)

		var (
			recent []file.Record
			usage  file.Usage
		)
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() error {
			var err error
			recent, err = query.List(ctx, requester, file.ListOptions{Sort: file.DefaultOrder, Limit: dashboardRecentLimit})
			return err
		})
		g.Go(func() error {
			var err error
			usage, err = accounting.ComputeUsage(ctx, requester)
			return err
		})
		if err := g.Wait(); err != nil {
			file.WriteError(c, "dashboard", err)
			return
		}

		counts := make(map[file.Type]int)
		for _, rec := range recent {
			counts[rec.Type]++
		}
		c.JSON(http.StatusOK, dashboardResponse{Recent: recent, Counts: counts, Usage: usage})
	}
}
