package thumbs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"uqe_market/internal/domain"

	"github.com/disintegration/imaging"
)

// cardSize is the edge length thumbnails are resized to for the item cards
const cardSize = 180

// thumbData is one entry of the thumbnails API response
type thumbData struct {
	TargetID int64  `json:"targetId"`
	State    string `json:"state"`
	ImageURL string `json:"imageUrl"`
}

type thumbResponse struct {
	Data []thumbData `json:"data"`
}

// Downloader resolves and caches item thumbnails on disk. Thumbnail
// failures are never fatal for the dashboard; callers fall back to a
// placeholder image.
type Downloader struct {
	apiURL   string
	size     string
	format   string
	basePath string
	client   *http.Client
}

// New creates a Downloader caching under the user config directory
func New(apiURL, size, format string) (*Downloader, error) {
	path, err := getAssetsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &Downloader{
		apiURL:   apiURL,
		size:     size,
		format:   format,
		basePath: path,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Resolve maps asset ids to CDN image URLs via the batch thumbnails API
func (d *Downloader) Resolve(ctx context.Context, assetIDs []int64) (map[int64]string, error) {
	if len(assetIDs) == 0 {
		return map[int64]string{}, nil
	}

	ids := make([]byte, 0, len(assetIDs)*8)
	for i, id := range assetIDs {
		if i > 0 {
			ids = append(ids, ',')
		}
		ids = strconv.AppendInt(ids, id, 10)
	}

	q := url.Values{}
	q.Set("assetIds", string(ids))
	q.Set("size", d.size)
	q.Set("format", d.format)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, domain.NewUpstreamError("thumbnails", "request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("thumbnails", "get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUpstreamStatusError("thumbnails", "get", resp.StatusCode,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var data thumbResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, domain.NewUpstreamError("thumbnails", "decode", err)
	}

	out := make(map[int64]string, len(data.Data))
	for _, t := range data.Data {
		if t.ImageURL != "" {
			out[t.TargetID] = t.ImageURL
		}
	}
	return out, nil
}

// Download fetches the thumbnail for an asset if it isn't cached yet.
// Returns the local file path on success. Images are resized to a fixed
// card size for consistent display.
func (d *Downloader) Download(ctx context.Context, assetID int64) (string, error) {
	filePath := d.Path(assetID)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	urls, err := d.Resolve(ctx, []int64{assetID})
	if err != nil {
		return "", err
	}
	imageURL, ok := urls[assetID]
	if !ok {
		return "", fmt.Errorf("no thumbnail for asset %d", assetID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	// Decode the image
	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, cardSize, cardSize, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// Path returns the local cache path for an asset's thumbnail
func (d *Downloader) Path(assetID int64) string {
	return filepath.Join(d.basePath, strconv.FormatInt(assetID, 10)+".png")
}

func getAssetsPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "UqeMarket", "assets", "thumbs"), nil
}
