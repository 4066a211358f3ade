// Package crawler harvests posts from a paginated HTML content platform.
//
// # Components
//
//   - Crawler: walks the numbered listing pages of a category and returns
//     the item URLs they link to
//   - Extractor: fetches one item page and maps it into a model.Post
//   - Document: goquery-backed FieldExtractor answering field queries
//   - Selectors: the markup selectors, configurable per deployment
//
// Both Crawler and Extractor fetch through a PageFetcher, normally a
// *fetch.Fetcher, so retry and pacing are handled below this package.
// Failures surface as absence: a listing page that cannot be fetched is
// skipped, an item page that cannot be fetched yields no post.
//
// # Usage
//
//	c, err := crawler.NewCrawler(fetcher, "https://www.indiehackers.com")
//	for _, itemURL := range c.Crawl(ctx, "ideas", 5) {
//		if post, ok := extractor.Extract(ctx, itemURL); ok {
//			posts = append(posts, *post)
//		}
//	}
package crawler
