package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrForbidden marks an access-denied response. It is terminal: the server
// has blocked the download and retrying will not help.
var ErrForbidden = errors.New("access denied by media host")

// FetchStatus classifies the outcome of a video fetch.
type FetchStatus int

const (
	FetchDownloaded FetchStatus = iota
	FetchAlreadyPresent
	FetchFailed
)

// FetchResult is the structured outcome of a video fetch attempt.
type FetchResult struct {
	Status FetchStatus
	Path   string
	Err    error
}

// ImageFetcher downloads one image to the local download directory.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url, postID string) (string, error)
}

// VideoFetcher retrieves the video attached to a post page.
type VideoFetcher interface {
	FetchVideo(ctx context.Context, pageURL, postID string) FetchResult
}

// Browser-equivalent headers; some instances refuse bare clients.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
}

// HTTPImageFetcher streams images over HTTP into the download directory.
type HTTPImageFetcher struct {
	client      *http.Client
	baseURL     string
	downloadDir string
}

func NewHTTPImageFetcher(baseURL, downloadDir string, timeout time.Duration) *HTTPImageFetcher {
	return &HTTPImageFetcher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		downloadDir: downloadDir,
	}
}

// FetchImage resolves a possibly-relative URL against the instance base and
// saves the body under the post identifier. A 403 maps to ErrForbidden.
func (f *HTTPImageFetcher) FetchImage(ctx context.Context, url, postID string) (string, error) {
	if strings.HasPrefix(url, "/") {
		url = f.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", f.baseURL+"/")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", ErrForbidden
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	path := filepath.Join(f.downloadDir, postID+"."+imageExtension(url))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// imageExtension infers a file extension from the URL, defaulting to jpg when
// absent or implausible.
func imageExtension(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	ext := ""
	if i := strings.LastIndexByte(url, '.'); i >= 0 {
		ext = url[i+1:]
	}
	if ext == "" || len(ext) > 4 || strings.ContainsAny(ext, "/\\") {
		return "jpg"
	}
	return ext
}

// Runner executes an external command and returns combined stdout/stderr.
// Split out so fetch logic is testable without the real tool.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

var alreadyDownloadedRe = regexp.MustCompile(`\[download\] (.*?) has already been downloaded`)

// YtDlpFetcher drives yt-dlp against a post page URL.
type YtDlpFetcher struct {
	runner      Runner
	downloadDir string
}

func NewYtDlpFetcher(runner Runner, downloadDir string) *YtDlpFetcher {
	return &YtDlpFetcher{runner: runner, downloadDir: downloadDir}
}

func (f *YtDlpFetcher) FetchVideo(ctx context.Context, pageURL, postID string) FetchResult {
	template := filepath.Join(f.downloadDir, postID+".%(ext)s")
	_, stderr, err := f.runner.Run(ctx, "yt-dlp",
		"-o", template,
		"--restrict-filenames",
		"--extractor-args", "generic:impersonate",
		pageURL,
	)
	if err != nil {
		// yt-dlp exits non-zero when the file is already on disk; the
		// diagnostic names the existing path.
		if m := alreadyDownloadedRe.FindStringSubmatch(stderr); m != nil {
			return FetchResult{Status: FetchAlreadyPresent, Path: strings.TrimSpace(m[1])}
		}
		return FetchResult{Status: FetchFailed, Err: fmt.Errorf("yt-dlp: %w", err)}
	}

	matches, err := filepath.Glob(filepath.Join(f.downloadDir, postID+".*"))
	if err != nil || len(matches) == 0 {
		return FetchResult{Status: FetchFailed, Err: fmt.Errorf("yt-dlp produced no file for %s", postID)}
	}
	return FetchResult{Status: FetchDownloaded, Path: matches[0]}
}
