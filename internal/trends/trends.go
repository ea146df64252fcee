// Package trends collects ranked entries from platform trend boards.
//
// GitHub renders its trending page server side, so it is fetched over plain
// HTTP. Twitter and HuggingFace hydrate their boards with JavaScript and go
// through a browser session. All collectors parse with goquery and cap
// output at the configured item limit, assigning 1-based ranks in board
// order.
package trends

import (
	"context"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// Collector scrapes one platform's trend board.
type Collector interface {
	Platform() model.Platform
	Collect(ctx context.Context) ([]model.TrendItem, error)
}

// Config parameterizes one board.
type Config struct {
	URL      string
	MaxItems int
}
