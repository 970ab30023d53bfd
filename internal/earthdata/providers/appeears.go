package providers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

const (
	appeearsProduct   = "MOD13Q1.061"
	appeearsNDVILayer = "_250m_16_days_NDVI"
	appeearsEVILayer  = "_250m_16_days_EVI"

	// Documented scale factor for raw MOD13Q1 integer codes.
	viScaleFactor = 0.0001
)

// TaskStatus is the lifecycle of an extraction task as reported by the
// provider. Transitions happen only through polling; done and error are
// terminal.
type TaskStatus string

const (
	TaskSubmitted  TaskStatus = "submitted"
	TaskProcessing TaskStatus = "processing"
	TaskDone       TaskStatus = "done"
	TaskError      TaskStatus = "error"
)

// Task is one asynchronous extraction instance.
type Task struct {
	ID       string
	Status   TaskStatus
	Progress int
}

// tokenManager holds the process-scoped AppEEARS session token. The
// original system kept this in an implicit module-level variable; here
// invalidation is explicit so a stale token triggers exactly one
// re-login before the failure escalates.
type tokenManager struct {
	mu    sync.Mutex
	token string
}

func (m *tokenManager) get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *tokenManager) set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// invalidate clears the token only if it still matches the one the
// failed call used, so a concurrent re-login is not thrown away.
func (m *tokenManager) invalidate(stale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == stale {
		m.token = ""
	}
}

// AppeearsProvider drives the task-based vegetation-index extraction
// workflow: login, submit, poll, download, parse. Unlike the moisture
// chain it escalates failures; vegetation consumers make stocking
// decisions and must not be fed silent guesses.
type AppeearsProvider struct {
	baseURL  string
	user     string
	password string
	client   *ResilientClient
	tokens   *tokenManager
	logger   *zap.Logger

	pollInterval time.Duration
	maxPolls     int
}

func NewAppeearsProvider(baseURL, user, password string, client *ResilientClient, pollInterval time.Duration, maxPolls int, logger *zap.Logger) *AppeearsProvider {
	return &AppeearsProvider{
		baseURL:      baseURL,
		user:         user,
		password:     password,
		client:       client,
		tokens:       &tokenManager{},
		logger:       logger,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}
}

// login exchanges the configured credentials for a session token.
func (p *AppeearsProvider) login(ctx context.Context) (string, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.baseURL+"/login", nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(p.user, p.password)
		return req, nil
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		var authErr *earthdata.AuthenticationError
		if errors.As(err, &authErr) {
			return "", err
		}
		return "", &earthdata.AuthenticationError{Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &earthdata.AuthenticationError{Err: fmt.Errorf("failed to decode login response: %w", err)}
	}
	if payload.Token == "" {
		return "", &earthdata.AuthenticationError{Err: errors.New("login response carried no token")}
	}

	p.tokens.set(payload.Token)
	return payload.Token, nil
}

// doAuthed executes an authenticated call, logging in lazily and
// retrying exactly once with a fresh token when the session is rejected.
func (p *AppeearsProvider) doAuthed(ctx context.Context, build func(token string) (*http.Request, error)) (*http.Response, error) {
	token := p.tokens.get()
	if token == "" {
		fresh, err := p.login(ctx)
		if err != nil {
			return nil, err
		}
		token = fresh
	}

	resp, err := p.client.Do(ctx, func() (*http.Request, error) { return build(token) })
	var authErr *earthdata.AuthenticationError
	if errors.As(err, &authErr) {
		p.logger.Warn("session token rejected, re-authenticating once")
		p.tokens.invalidate(token)
		fresh, loginErr := p.login(ctx)
		if loginErr != nil {
			return nil, loginErr
		}
		return p.client.Do(ctx, func() (*http.Request, error) { return build(fresh) })
	}
	return resp, err
}

// SubmitTask reduces the area to its centroid and submits a point
// extraction task for NDVI and EVI over the window. The provider's
// point API serves even "area" queries; that simplification is part of
// the contract. Returns the provider-assigned task id.
func (p *AppeearsProvider) SubmitTask(ctx context.Context, area earthdata.AreaOfInterest, start, end time.Time) (string, error) {
	center := area.Centroid()

	body := map[string]interface{}{
		"task_type": "point",
		"task_name": fmt.Sprintf("vi_%.4f_%.4f_%s", center.Lat, center.Lon, uuid.NewString()[:8]),
		"params": map[string]interface{}{
			"dates": []map[string]string{{
				"startDate": start.UTC().Format("01-02-2006"),
				"endDate":   end.UTC().Format("01-02-2006"),
			}},
			"layers": []map[string]string{
				{"product": appeearsProduct, "layer": appeearsNDVILayer},
				{"product": appeearsProduct, "layer": appeearsEVILayer},
			},
			"coordinates": []map[string]float64{{
				"latitude":  center.Lat,
				"longitude": center.Lon,
			}},
		},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", earthdata.ErrTerminalRequest, err)
	}

	resp, err := p.doAuthed(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.baseURL+"/task", bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode task submission response: %w", err)
	}
	if payload.TaskID == "" {
		return "", &earthdata.TaskFailedError{Message: "submission response carried no task id"}
	}

	p.logger.Info("extraction task submitted",
		zap.String("taskId", payload.TaskID),
		zap.Float64("lat", center.Lat),
		zap.Float64("lon", center.Lon))
	return payload.TaskID, nil
}

// AwaitAndDownload polls the task until it terminates, then downloads
// and parses the result bundle. The poll budget is pollInterval x
// maxPolls; exhausting it yields TaskTimeoutError, a provider-reported
// failure yields TaskFailedError, and context cancellation stops the
// loop without retracting the upstream task.
func (p *AppeearsProvider) AwaitAndDownload(ctx context.Context, taskID string) ([]earthdata.VegetationObservation, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for poll := 1; poll <= p.maxPolls; poll++ {
		task, err := p.pollStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		p.logger.Debug("extraction task polled",
			zap.String("taskId", taskID),
			zap.String("status", string(task.Status)),
			zap.Int("progress", task.Progress),
			zap.Int("poll", poll))

		switch task.Status {
		case TaskDone:
			return p.downloadBundle(ctx, taskID)
		case TaskError:
			return nil, &earthdata.TaskFailedError{TaskID: taskID}
		}

		if poll == p.maxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, &earthdata.TaskTimeoutError{TaskID: taskID, Polls: p.maxPolls}
}

func (p *AppeearsProvider) pollStatus(ctx context.Context, taskID string) (Task, error) {
	resp, err := p.doAuthed(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, p.baseURL+"/task/"+taskID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return Task{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status   string `json:"status"`
		Progress struct {
			Summary int `json:"summary"`
		} `json:"progress"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Task{}, fmt.Errorf("failed to decode task status: %w", err)
	}

	task := Task{ID: taskID, Progress: payload.Progress.Summary}
	switch payload.Status {
	case "done":
		task.Status = TaskDone
	case "error":
		task.Status = TaskError
	case "", "pending", "queued", "submitted":
		task.Status = TaskSubmitted
	default:
		task.Status = TaskProcessing
	}
	return task, nil
}

// downloadBundle fetches the result bundle (a zip holding delimited
// text) and parses the MOD13Q1 CSV inside it.
func (p *AppeearsProvider) downloadBundle(ctx context.Context, taskID string) ([]earthdata.VegetationObservation, error) {
	resp, err := p.doAuthed(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, p.baseURL+"/bundle/"+taskID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result bundle: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to open result bundle: %w", err)
	}

	for _, f := range archive.File {
		if !strings.HasSuffix(f.Name, ".csv") || !strings.Contains(f.Name, "MOD13Q1") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open bundle file %s: %w", f.Name, err)
		}
		obs, err := parseVegetationCSV(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return obs, nil
	}

	return nil, &earthdata.TaskFailedError{TaskID: taskID, Message: "result bundle contains no MOD13Q1 csv"}
}

// parseVegetationCSV turns the provider's delimited result rows into
// typed observations. Raw NDVI/EVI cells are integer codes; the
// documented scale factor brings them into the conventional [-1,1]
// range. Rows the QA column flags are exposed as modeled rather than
// measured.
func parseVegetationCSV(r io.Reader) ([]earthdata.VegetationObservation, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read result csv header: %w", err)
	}

	dateCol, ndviCol, eviCol, qaCol := -1, -1, -1, -1
	for i, name := range header {
		switch {
		case strings.EqualFold(name, "Date"):
			dateCol = i
		case strings.Contains(name, "NDVI"):
			ndviCol = i
		case strings.Contains(name, "EVI"):
			eviCol = i
		case strings.Contains(name, "Quality"):
			qaCol = i
		}
	}
	if dateCol < 0 || ndviCol < 0 || eviCol < 0 {
		return nil, errors.New("result csv is missing date or index columns")
	}

	var observations []earthdata.VegetationObservation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read result csv row: %w", err)
		}

		date, err := time.Parse("2006-01-02", row[dateCol])
		if err != nil {
			continue
		}
		ndviRaw, err := strconv.ParseFloat(row[ndviCol], 64)
		if err != nil {
			continue
		}
		eviRaw, err := strconv.ParseFloat(row[eviCol], 64)
		if err != nil {
			continue
		}

		quality := earthdata.QualityMeasured
		if qaCol >= 0 && qaCol < len(row) {
			if qa, err := strconv.Atoi(strings.TrimSpace(row[qaCol])); err == nil && qa != 0 {
				quality = earthdata.QualityModeled
			}
		}

		observations = append(observations, earthdata.VegetationObservation{
			Date:    earthdata.DayUTC(date),
			NDVI:    earthdata.ClampValue(ndviRaw*viScaleFactor, -1, 1),
			EVI:     earthdata.ClampValue(eviRaw*viScaleFactor, -1, 1),
			Quality: quality,
		})
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})
	return observations, nil
}
