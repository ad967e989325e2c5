package handlers

import (
	"context"

	"github.com/serroba/shortlinks/internal/shortener"
)

func (h *LinkHandler) AllLongURLs(ctx context.Context, _ *struct{}) (*URLListResponse, error) {
	if callerFrom(ctx).IsAnonymous() {
		return nil, forbidden()
	}

	urls, err := h.resolver.AllLongURLs(ctx)
	if err != nil {
		return nil, linkError(err)
	}

	return urlList(urls), nil
}

func (h *LinkHandler) AllByRecency(ctx context.Context, _ *struct{}) (*ShortLinkListResponse, error) {
	links, err := h.resolver.AllByRecency(ctx)
	if err != nil {
		return nil, linkError(err)
	}

	return shortLinkList(links), nil
}

func (h *LinkHandler) AllByPopularity(ctx context.Context, _ *struct{}) (*ShortLinkListResponse, error) {
	links, err := h.resolver.AllByPopularity(ctx)
	if err != nil {
		return nil, linkError(err)
	}

	return shortLinkList(links), nil
}

func (h *LinkHandler) OwnedLongURLs(ctx context.Context, _ *struct{}) (*URLListResponse, error) {
	urls, err := h.resolver.LongURLsOwnedBy(ctx, callerFrom(ctx))
	if err != nil {
		return nil, linkError(err)
	}

	return urlList(urls), nil
}

func (h *LinkHandler) OwnedByRecency(ctx context.Context, _ *struct{}) (*ShortLinkListResponse, error) {
	links, err := h.resolver.OwnedBy(ctx, callerFrom(ctx), shortener.OrderRecent)
	if err != nil {
		return nil, linkError(err)
	}

	return shortLinkList(links), nil
}

func (h *LinkHandler) OwnedByPopularity(ctx context.Context, _ *struct{}) (*ShortLinkListResponse, error) {
	links, err := h.resolver.OwnedBy(ctx, callerFrom(ctx), shortener.OrderPopular)
	if err != nil {
		return nil, linkError(err)
	}

	return shortLinkList(links), nil
}

func (h *LinkHandler) TotalLongURLs(ctx context.Context, _ *struct{}) (*TotalURLsResponse, error) {
	urls, err := h.resolver.LongURLsOwnedBy(ctx, callerFrom(ctx))
	if err != nil {
		return nil, linkError(err)
	}

	resp := &TotalURLsResponse{}
	resp.Body.TotalURLs = len(urls)

	return resp, nil
}

func (h *LinkHandler) TotalShortLinks(ctx context.Context, _ *struct{}) (*TotalShortLinksResponse, error) {
	links, err := h.resolver.OwnedBy(ctx, callerFrom(ctx), shortener.OrderRecent)
	if err != nil {
		return nil, linkError(err)
	}

	resp := &TotalShortLinksResponse{}
	resp.Body.TotalShortenURLs = len(links)

	return resp, nil
}

func urlList(urls []shortener.LongURL) *URLListResponse {
	resp := &URLListResponse{}
	resp.Body.URLList = make([]LongURLView, 0, len(urls))

	for i := range urls {
		resp.Body.URLList = append(resp.Body.URLList, newLongURLView(&urls[i]))
	}

	return resp
}

func shortLinkList(links []shortener.ShortLink) *ShortLinkListResponse {
	resp := &ShortLinkListResponse{}
	resp.Body.ShortenURLList = make([]ShortLinkView, 0, len(links))

	for i := range links {
		resp.Body.ShortenURLList = append(resp.Body.ShortenURLList, newShortLinkView(&links[i]))
	}

	return resp
}
