package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	v1 "github.com/vyrodovalexey/recommendations/api/recommendations/v1"
	"github.com/vyrodovalexey/recommendations/internal/catalog"
	"github.com/vyrodovalexey/recommendations/internal/client"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// runQuery calls a running server once and writes the response as JSON.
func runQuery(ctx context.Context, flags cliFlags, w io.Writer, logger observability.Logger) error {
	category, err := catalog.ParseCategory(flags.category)
	if err != nil {
		return err
	}

	if flags.maxResults > math.MaxInt32 || flags.maxResults < math.MinInt32 {
		return fmt.Errorf("max results %d out of range", flags.maxResults)
	}
	if flags.userID > math.MaxInt32 || flags.userID < math.MinInt32 {
		return fmt.Errorf("user id %d out of range", flags.userID)
	}

	opts := []client.Option{client.WithLogger(logger)}
	if flags.caFile != "" {
		opts = append(opts, client.WithCAFile(flags.caFile))
	}
	if flags.serverName != "" {
		opts = append(opts, client.WithServerName(flags.serverName))
	}

	c, err := client.New(flags.queryAddr, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	recs, err := c.Recommend(ctx, int32(flags.userID), v1.BookCategory(category), int32(flags.maxResults))
	if err != nil {
		return err
	}

	out, err := (&v1.RecommendationResponse{Recommendations: recs}).MarshalJSON()
	if err != nil {
		return err
	}

	var pretty json.RawMessage = out
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}
