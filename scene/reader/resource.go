package reader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// A streamable local or remote scene file.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// The path or url the resource was opened from.
func (r *Resource) Path() string {
	return r.url.String()
}

// True if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a scene resource from a local path or a http/https url. The caller
// must close the returned resource.
func NewResource(pathToResource string) (*Resource, error) {
	url, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	switch url.Scheme {
	case "":
		if reader, err = os.Open(filepath.Clean(url.Path)); err != nil {
			return nil, err
		}
	case "http", "https":
		if reader, err = fetchRemote(url.String()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("resource: unsupported scheme %q", url.Scheme)
	}

	return &Resource{ReadCloser: reader, url: url}, nil
}

// Wrap an in-memory stream as a named resource.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	url, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        url,
	}
}

func fetchRemote(target string) (io.ReadCloser, error) {
	resp, err := http.Get(target)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch %q: %s", target, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch %q: status %d", target, resp.StatusCode)
	}
	return resp.Body, nil
}
