package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteConfig points a model slot at a model server instead of local weights.
type RemoteConfig struct {
	Kind       string   `json:"kind"`
	URL        string   `json:"url"`
	Timesteps  int      `json:"timesteps"`
	Features   int      `json:"features"`
	Regressors []string `json:"regressors"`
	TimeoutMS  int      `json:"timeout_ms"`
}

type remoteClient struct {
	url    string
	client *http.Client
}

func newRemoteClient(cfg RemoteConfig) (*remoteClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote model: url is required")
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &remoteClient{url: cfg.URL, client: &http.Client{Timeout: timeout}}, nil
}

func (c *remoteClient) postJSON(ctx context.Context, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: unexpected status %d: %s", c.url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RemoteSequence delegates Predict to a model server:
// POST {"inputs": [[[...]]]} -> {"predictions": [...]}.
type RemoteSequence struct {
	cfg RemoteConfig
	c   *remoteClient
}

func NewRemoteSequence(cfg RemoteConfig) (*RemoteSequence, error) {
	c, err := newRemoteClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RemoteSequence{cfg: cfg, c: c}, nil
}

func (m *RemoteSequence) InputShape() (int, int) { return m.cfg.Timesteps, m.cfg.Features }

func (m *RemoteSequence) Predict(ctx context.Context, x Tensor) ([]float64, error) {
	batch, _, feats := x.Shape()
	if m.cfg.Features > 0 && feats != m.cfg.Features {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrShape, feats, m.cfg.Features)
	}
	var resp struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := m.c.postJSON(ctx, map[string]any{"inputs": x}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) != batch {
		return nil, fmt.Errorf("%w: %d predictions for batch of %d", ErrShape, len(resp.Predictions), batch)
	}
	return resp.Predictions, nil
}

// RemoteDecomposition delegates PredictBatch to a model server:
// POST {"ds": [...], "columns": {name: [...]}} -> {"yhat": [...]}.
type RemoteDecomposition struct {
	cfg RemoteConfig
	c   *remoteClient
}

func NewRemoteDecomposition(cfg RemoteConfig) (*RemoteDecomposition, error) {
	c, err := newRemoteClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RemoteDecomposition{cfg: cfg, c: c}, nil
}

func (m *RemoteDecomposition) Regressors() []string { return m.cfg.Regressors }

func (m *RemoteDecomposition) PredictBatch(ctx context.Context, f Frame) ([]float64, error) {
	ds := make([]string, f.Len())
	for i, t := range f.Times {
		ds[i] = t.Format(time.RFC3339)
	}
	cols := make(map[string][]float64, len(m.cfg.Regressors))
	for _, name := range m.cfg.Regressors {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}
	var resp struct {
		YHat []float64 `json:"yhat"`
	}
	if err := m.c.postJSON(ctx, map[string]any{"ds": ds, "columns": cols}, &resp); err != nil {
		return nil, err
	}
	if len(resp.YHat) != f.Len() {
		return nil, fmt.Errorf("%w: %d forecasts for %d rows", ErrShape, len(resp.YHat), f.Len())
	}
	return resp.YHat, nil
}
