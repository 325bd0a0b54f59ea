// Package page builds the dashboard HTML served for each feature: the shell
// from the asset store with asset placeholders resolved to absolute URLs and
// the feature's client configuration injected as a window global.
package page

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"forecast-portal/internal/config"
	"forecast-portal/internal/model"
	"forecast-portal/web"
)

// AssetStore returns the directory at dir when set, otherwise the embedded assets.
func AssetStore(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return web.FS
}

type Renderer struct {
	cfg    *config.Config
	assets fs.FS
}

func NewRenderer(cfg *config.Config, assets fs.FS) *Renderer {
	return &Renderer{cfg: cfg, assets: assets}
}

// Configured builds a renderer over the asset store named by cfg.
func Configured(cfg *config.Config) *Renderer {
	return NewRenderer(cfg, AssetStore(cfg.Server.AssetsDir))
}

// Assets exposes the underlying asset store.
func (r *Renderer) Assets() fs.FS {
	return r.assets
}

// Render returns the feature's shell with asset URLs resolved against base and
// the client configuration injected.
func (r *Renderer) Render(feature *config.FeatureConfig, base string) ([]byte, error) {
	shell, err := fs.ReadFile(r.assets, feature.Shell)
	if err != nil {
		return nil, fmt.Errorf("load shell for %s: %w", feature.Slug, err)
	}

	doc := ReplaceAssets(shell, AssetURLs(base, feature.Assets))
	return InjectConfig(doc, feature.ConfigName, r.ClientConfig(feature, base))
}

// ClientConfig is the object a render script reads from window.<CONFIG_NAME>.
// Links are flattened next to the fixed keys, e.g. alertsUrl.
func (r *Renderer) ClientConfig(feature *config.FeatureConfig, base string) map[string]any {
	out := make(map[string]any, 6+len(feature.Links))
	for key, target := range feature.Links {
		out[key] = ProxyURL(base, target)
	}
	out["feature"] = feature.Slug
	out["title"] = feature.Title
	out["description"] = feature.Description
	out["proxyUrl"] = ProxyURL(base, feature.Slug)
	out["dashboardUrl"] = DashboardURL(base, feature.Slug)

	if feature.Transform == config.TransformForecast {
		metrics := make([]map[string]string, 0, len(model.Metrics))
		for _, m := range model.Metrics {
			metrics = append(metrics, map[string]string{"key": m.Key, "label": m.Label})
		}
		out["metrics"] = metrics
		out["defaults"] = map[string]any{
			"metric":  model.DefaultMetric,
			"periods": model.DefaultPeriods,
			"method":  model.MethodARIMA,
		}
	}
	return out
}

func ProxyURL(base, slug string) string {
	return base + "/proxy/" + slug
}

func DashboardURL(base, slug string) string {
	return base + "/dashboards/" + slug
}

// Placeholder is the token a shell uses to reference an asset: its base filename.
func Placeholder(asset string) string {
	return path.Base(asset)
}

// AssetURLs maps each asset's placeholder to its absolute URL under base.
func AssetURLs(base string, assets []string) map[string]string {
	urls := make(map[string]string, len(assets))
	for _, a := range assets {
		urls[Placeholder(a)] = base + "/assets/" + strings.TrimLeft(a, "/")
	}
	return urls
}

// ReplaceAssets substitutes every placeholder in a single pass, so a URL that
// happens to contain another placeholder is never rewritten again.
func ReplaceAssets(doc []byte, urls map[string]string) []byte {
	if len(urls) == 0 {
		return doc
	}
	keys := make([]string, 0, len(urls))
	for k := range urls {
		if k != "" {
			keys = append(keys, k)
		}
	}
	// longest first so a placeholder that is a suffix of another loses ties
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, urls[k])
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(doc)))
}

// InjectConfig serializes payload into <script>window.name = ...;</script>
// and inserts it before the first </head> (any case). Without a </head> the
// snippet is appended.
func InjectConfig(doc []byte, name string, payload any) ([]byte, error) {
	js, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	var snippet bytes.Buffer
	snippet.WriteString("<script>window.")
	snippet.WriteString(name)
	snippet.WriteString(" = ")
	snippet.Write(js)
	snippet.WriteString(";</script>")

	idx := indexFold(doc, "</head>")
	out := make([]byte, 0, len(doc)+snippet.Len()+1)
	if idx < 0 {
		out = append(out, doc...)
		out = append(out, snippet.Bytes()...)
		return out, nil
	}
	out = append(out, doc[:idx]...)
	out = append(out, snippet.Bytes()...)
	out = append(out, doc[idx:]...)
	return out, nil
}

// indexFold is an ASCII case-insensitive bytes.Index.
func indexFold(s []byte, sub string) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(string(s[i:i+n]), sub) {
			return i
		}
	}
	return -1
}

// BaseURL is public when configured, otherwise the request's scheme and host.
// X-Forwarded-Proto is honoured only when trustForwarded is set; the Host
// header is whatever the client sent, so deployments behind a shared cache or
// reverse proxy should configure public.
func BaseURL(req *http.Request, public string, trustForwarded bool) string {
	if public != "" {
		return strings.TrimRight(public, "/")
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if trustForwarded {
		proto, _, _ := strings.Cut(req.Header.Get("X-Forwarded-Proto"), ",")
		switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
		case "http", "https":
			scheme = proto
		}
	}
	return scheme + "://" + req.Host
}
