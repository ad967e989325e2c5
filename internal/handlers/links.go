package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler exposes short link creation, resolution and lifecycle.
type LinkHandler struct {
	service            *shortener.Service
	resolver           *shortener.Resolver
	baseURL            string
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent]
	logger             *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	resolver *shortener.Resolver,
	baseURL string,
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:            service,
		resolver:           resolver,
		baseURL:            baseURL,
		publishLinkCreated: publishLinkCreated,
		logger:             logger,
	}
}

func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	result, err := h.service.Shorten(ctx, callerFrom(ctx), shortener.ShortenRequest{
		URL:          req.Body.URL,
		VanityString: req.Body.VanityString,
		Length:       req.Body.ShortenURLLength,
	})
	if err != nil {
		return nil, linkError(err)
	}

	link := result.Link
	fullShortURL := fmt.Sprintf("%s/%s", h.baseURL, link.Code)

	resp := &ShortenResponse{Status: http.StatusOK, Location: fullShortURL}
	resp.Body.Message = result.Message
	resp.Body.ShortenURL = ShortenURLRef{ID: link.ID, Name: link.Code}
	resp.Body.ShortURL = fullShortURL

	if result.Created {
		resp.Status = http.StatusCreated
		h.publishCreated(ctx, link, req)
	}

	return resp, nil
}

func (h *LinkHandler) publishCreated(ctx context.Context, link *shortener.ShortLink, req *ShortenRequest) {
	if h.publishLinkCreated == nil {
		return
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		LinkID:    link.ID,
		Code:      link.Code,
		OwnerID:   link.OwnerID,
		LongURL:   req.Body.URL,
		Vanity:    req.Body.VanityString != "",
		CreatedAt: link.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publishLinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

func (h *LinkHandler) ResolveByID(ctx context.Context, req *LinkIDRequest) (*LongURLResponse, error) {
	target, err := h.resolver.ResolveByID(ctx, req.ID, originFrom(ctx))
	if err != nil {
		return nil, linkError(err)
	}

	return &LongURLResponse{Body: newLongURLView(target)}, nil
}

func (h *LinkHandler) ResolveByCode(ctx context.Context, req *CodeRequest) (*LongURLResponse, error) {
	target, err := h.resolver.ResolveByCode(ctx, req.Code, originFrom(ctx))
	if err != nil {
		return nil, linkError(err)
	}

	return &LongURLResponse{Body: newLongURLView(target)}, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *CodeRequest) (*RedirectResponse, error) {
	target, err := h.resolver.ResolveByCode(ctx, req.Code, originFrom(ctx))
	if err != nil {
		return nil, linkError(err)
	}

	return &RedirectResponse{Status: http.StatusFound, Location: target.Name}, nil
}

func (h *LinkHandler) UpdateTarget(ctx context.Context, req *UpdateTargetRequest) (*UpdateTargetResponse, error) {
	link, target, err := h.service.UpdateTarget(ctx, callerFrom(ctx), req.ID, req.Body.URL)
	if err != nil {
		return nil, linkError(err)
	}

	resp := &UpdateTargetResponse{}
	resp.Body.ShortLinkView = newShortLinkView(link)
	resp.Body.LongURL = target.Name

	return resp, nil
}

func (h *LinkHandler) Activate(ctx context.Context, req *LinkIDRequest) (*MessageResponse, error) {
	return h.transition(ctx, req, h.service.Activate, shortener.MessageActivated)
}

func (h *LinkHandler) Deactivate(ctx context.Context, req *LinkIDRequest) (*MessageResponse, error) {
	return h.transition(ctx, req, h.service.Deactivate, shortener.MessageDeactivated)
}

func (h *LinkHandler) Delete(ctx context.Context, req *LinkIDRequest) (*MessageResponse, error) {
	return h.transition(ctx, req, h.service.Delete, shortener.MessageDeleted)
}

func (h *LinkHandler) Restore(ctx context.Context, req *LinkIDRequest) (*MessageResponse, error) {
	return h.transition(ctx, req, h.service.Restore, shortener.MessageRestored)
}

func (h *LinkHandler) transition(
	ctx context.Context,
	req *LinkIDRequest,
	apply func(context.Context, shortener.Caller, int64) (*shortener.ShortLink, error),
	msg string,
) (*MessageResponse, error) {
	if _, err := apply(ctx, callerFrom(ctx), req.ID); err != nil {
		return nil, linkError(err)
	}

	return message(msg), nil
}
