package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"github.com/Ogstra/ogs-traffic/core"
	"github.com/gorilla/mux"
)

const maxUploadBytes = 32 << 20

type StatusResponse struct {
	Loaded    bool   `json:"loaded"`
	SessionID string `json:"session_id,omitempty"`
	LoadedAt  int64  `json:"loaded_at,omitempty"`
	Records   int    `json:"records"`
}

type LoadResponse struct {
	SessionID string `json:"session_id"`
	Records   int    `json:"records"`
}

type LoadFileRequest struct {
	Path string `json:"path"`
}

type RecordView struct {
	Position  int    `json:"position"`
	Count     int64  `json:"count"`
	Timestamp string `json:"timestamp"`
}

type AddRecordRequest struct {
	Count     json.Number `json:"count"`
	Timestamp string      `json:"timestamp"`
}

type WindowResponse struct {
	Anchor    string       `json:"anchor"`
	Seconds   int64        `json:"seconds"`
	Direction string       `json:"direction"`
	Average   *float64     `json:"average"`
	Records   []RecordView `json:"records"`
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{Loaded: s.dataset != nil}
	if s.dataset != nil {
		resp.SessionID = s.sessionID
		resp.LoadedAt = s.loadedAt.Unix()
		resp.Records = s.dataset.Len()
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	ds := core.NewDataset()
	if err := ds.Load(http.MaxBytesReader(w, r.Body, maxUploadBytes)); err != nil {
		s.writeError(w, err)
		return
	}
	s.replaceDataset(w, ds, "upload")
}

func (s *Server) handleLoadDatasetFile(w http.ResponseWriter, r *http.Request) {
	var req LoadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.writeError(w, fmt.Errorf("%w: body must be {\"path\": ...}", core.ErrInvalidInput))
		return
	}
	ds := core.NewDataset()
	if err := ds.LoadFile(req.Path); err != nil {
		s.writeError(w, err)
		return
	}
	s.replaceDataset(w, ds, req.Path)
}

func (s *Server) replaceDataset(w http.ResponseWriter, ds *core.Dataset, source string) {
	s.mu.Lock()
	s.setDataset(ds)
	resp := LoadResponse{SessionID: s.sessionID, Records: ds.Len()}
	s.mu.Unlock()

	s.logger.Info("dataset-loaded", lager.Data{"source": source, "records": resp.Records, "session": resp.SessionID})
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	var views []RecordView
	err := s.withDataset(func(ds *core.Dataset) error {
		views = toViews(ds.Records(), true)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Positions are only reported for the full listing; a filtered row's index
// in the result is not its dataset position.
func (s *Server) handleGetRecordsInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var views []RecordView
	err := s.withDataset(func(ds *core.Dataset) error {
		records, err := ds.FilterByRange(q.Get("start"), q.Get("end"))
		if err != nil {
			return err
		}
		views = toViews(records, false)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req AddRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", core.ErrInvalidInput, err))
		return
	}

	var added core.Record
	err := s.withDataset(func(ds *core.Dataset) error {
		rec, err := ds.Add(req.Count.String(), req.Timestamp)
		if err != nil {
			return err
		}
		added = rec
		s.charts.clear()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordView{Position: -1, Count: added.Count, Timestamp: core.DisplayTimestamp(added.Timestamp)})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: position must be an integer", core.ErrInvalidInput))
		return
	}

	var removed core.Record
	err = s.withDataset(func(ds *core.Dataset) error {
		rec, err := ds.Delete(pos)
		if err != nil {
			return err
		}
		removed = rec
		s.charts.clear()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordView{Position: pos, Count: removed.Count, Timestamp: core.DisplayTimestamp(removed.Timestamp)})
}

func (s *Server) handleGetAverage(w http.ResponseWriter, r *http.Request) {
	var avg float64
	err := s.withDataset(func(ds *core.Dataset) error {
		var err error
		avg, err = ds.Average()
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"average": avg})
}

func (s *Server) handleGetPeakHour(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startText, endText := q.Get("start"), q.Get("end")

	var peak core.PeakHour
	err := s.withDataset(func(ds *core.Dataset) error {
		var err error
		if startText == "" && endText == "" {
			peak, err = ds.PeakHour()
			return err
		}
		start, err := core.ParseUserTimestamp(startText)
		if err != nil {
			return fmt.Errorf("%w: start: %v", core.ErrInvalidRange, err)
		}
		end, err := core.ParseUserTimestamp(endText)
		if err != nil {
			return fmt.Errorf("%w: end: %v", core.ErrInvalidRange, err)
		}
		peak, err = ds.PeakHourBetween(start, end)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, peak)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	var summary core.Summary
	err := s.withDataset(func(ds *core.Dataset) error {
		var err error
		summary, err = ds.Summary()
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	anchor, err := core.ParseUserTimestamp(q.Get("anchor"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: anchor: %v", core.ErrInvalidRange, err))
		return
	}
	seconds, err := strconv.ParseInt(q.Get("seconds"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: seconds must be an integer", core.ErrInvalidInput))
		return
	}
	span, err := core.SecondsSpan(seconds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dir, err := core.ParseDirection(q.Get("direction"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := WindowResponse{
		Anchor:    core.DisplayTimestamp(anchor),
		Seconds:   seconds,
		Direction: dir.String(),
		Records:   []RecordView{},
	}
	err = s.withDataset(func(ds *core.Dataset) error {
		records, err := ds.Window(anchor, span, dir)
		if err != nil {
			return err
		}
		resp.Records = toViews(records, false)
		if avg, _, err := ds.WindowAverage(anchor, span, dir); err == nil {
			resp.Average = &avg
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.withDataset(func(ds *core.Dataset) error { return ds.WriteCSV(&buf) }); err != nil {
		s.writeError(w, err)
		return
	}

	name := filepath.Base(s.config.ExportPath)
	if name == "." || name == string(filepath.Separator) {
		name = "traffic.csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	opts := s.config.ChartOptions()
	opts.Format = r.URL.Query().Get("format")

	var payload []byte
	err := s.withDataset(func(ds *core.Dataset) error {
		if cached, ok := s.charts.get(opts.Format); ok {
			payload = cached
			return nil
		}
		var buf bytes.Buffer
		if err := core.RenderChart(&buf, ds.Records(), opts); err != nil {
			return err
		}
		payload = buf.Bytes()
		s.charts.put(opts.Format, payload)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	contentType := "image/png"
	if strings.EqualFold(opts.Format, "svg") {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(payload)
}

func toViews(records []core.Record, withPosition bool) []RecordView {
	views := make([]RecordView, 0, len(records))
	for i, rec := range records {
		pos := -1
		if withPosition {
			pos = i
		}
		views = append(views, RecordView{
			Position:  pos,
			Count:     rec.Count,
			Timestamp: core.DisplayTimestamp(rec.Timestamp),
		})
	}
	return views
}
