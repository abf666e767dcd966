package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pontis/backend/internal/config"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
)

// BlobHandler bridges the browser to the storage provider. Browsers never
// hold the storage token; this handler either signs a URL (token appended
// as a query parameter) or fetches with the token and relays the bytes.
// Only allow-listed storage hosts are accepted, so the endpoint cannot be
// used as an open proxy.
type BlobHandler struct {
	token        string
	allowedHosts map[string]bool
	client       *http.Client
}

func NewBlobHandler(cfg config.StorageConfig) *BlobHandler {
	allowed := make(map[string]bool)
	if parsed, err := url.Parse(cfg.PublicBaseURL); err == nil && parsed.Host != "" {
		allowed[strings.ToLower(parsed.Host)] = true
	}
	for _, host := range cfg.AllowedHosts {
		allowed[strings.ToLower(host)] = true
	}

	return &BlobHandler{
		token:        cfg.AccessToken,
		allowedHosts: allowed,
		client:       &http.Client{},
	}
}

func (h *BlobHandler) validate(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errInvalidBlobURL
	}
	if !h.allowedHosts[strings.ToLower(parsed.Host)] {
		return nil, errInvalidBlobURL
	}
	return parsed, nil
}

func (h *BlobHandler) sign(parsed *url.URL) string {
	query := parsed.Query()
	if h.token != "" {
		query.Set("token", h.token)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// SignURL returns the input URL with the storage access token attached as
// a query parameter.
func (h *BlobHandler) SignURL(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return utils.Error(c, fiber.StatusBadRequest, "url is required")
	}

	parsed, err := h.validate(raw)
	if err != nil {
		logger.Warn("blob_url_rejected", map[string]interface{}{
			"url": raw,
			"ip":  c.IP(),
		})
		return utils.Error(c, fiber.StatusBadRequest, "url host is not an allowed storage host")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": h.sign(parsed)})
}

// Proxy streams the blob through the server, attaching the token upstream
// and relaying status and content type. Bytes are streamed, not buffered.
func (h *BlobHandler) Proxy(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return utils.Error(c, fiber.StatusBadRequest, "url is required")
	}

	parsed, err := h.validate(raw)
	if err != nil {
		logger.Warn("blob_proxy_rejected", map[string]interface{}{
			"url": raw,
			"ip":  c.IP(),
		})
		return utils.Error(c, fiber.StatusBadRequest, "url host is not an allowed storage host")
	}

	req, err := http.NewRequestWithContext(c.Context(), http.MethodGet, h.sign(parsed), nil)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed building upstream request")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error("blob_proxy_fetch_failed", err, map[string]interface{}{"host": parsed.Host})
		return utils.Error(c, fiber.StatusBadGateway, "failed fetching blob")
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		logger.Warn("blob_proxy_upstream_status", map[string]interface{}{
			"host":   parsed.Host,
			"status": resp.StatusCode,
		})
		return utils.Error(c, fiber.StatusBadGateway, "storage provider refused the request")
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		c.Set(fiber.HeaderContentLength, contentLength)
	}

	// fasthttp closes the body once the stream is drained.
	return c.SendStream(resp.Body)
}
