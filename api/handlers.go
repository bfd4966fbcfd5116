package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/infra"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/report"
)

// ============================================================
// Health
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	t := s.store.Table()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			DataPath:  s.store.Path(),
			Rows:      t.Len(),
			Crops:     len(t.Crops()),
			LoadedAt:  s.store.LoadedAt(),
			WSClients: s.wsHub.ClientCount(),
			Cache:     s.cache.Stats(),
		},
	})
}

// ============================================================
// Views and crops
// ============================================================

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	views := make([]ViewInfo, 0, len(dashboard.AllViews))
	for _, v := range dashboard.AllViews {
		views = append(views, ViewInfo{Key: string(v), Label: v.Label()})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: views})
}

func (s *Server) handleCrops(w http.ResponseWriter, r *http.Request) {
	crops := s.store.Table().Crops()
	if crops == nil {
		crops = []string{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: crops})
}

// handlePanel returns the rendered panel for ?crop=&data=&code=.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	t := s.store.Table()
	sel, err := s.selection(r, t)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	panel, err := s.dash.Render(t, sel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: panel})
}

// handleChart renders one chart of a panel. ?chart= selects the chart
// index for views with more than one chart.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	t, gen := s.store.Snapshot()
	sel, err := s.selection(r, t)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	index := 0
	if raw := r.URL.Query().Get("chart"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil || index < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid chart index %q", raw))
			return
		}
	}

	key := infra.Key("chart", strconv.FormatUint(gen, 10), string(sel.View), sel.Crop, strconv.Itoa(index), string(format))
	entry, err := s.cache.GetOrRender(key, func() ([]byte, string, error) {
		panel, err := s.dash.Render(t, dashboard.Selection{View: sel.View, Crop: sel.Crop})
		if err != nil {
			return nil, "", err
		}
		if index >= len(panel.Charts) {
			return nil, "", errChartIndex{index: index, count: len(panel.Charts)}
		}
		var buf bytes.Buffer
		if err := report.Chart(&buf, panel.Charts[index], format, s.renderConfig()); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), format.ContentType(), nil
	})
	if err != nil {
		var ci errChartIndex
		if errors.As(err, &ci) {
			writeError(w, http.StatusNotFound, ci.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", entry.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Data)
}

type errChartIndex struct {
	index, count int
}

func (e errChartIndex) Error() string {
	return fmt.Sprintf("chart %d not found (view has %d)", e.index, e.count)
}

func (s *Server) renderConfig() report.Config {
	return report.Config{Width: s.cfg.Render.Width, Height: s.cfg.Render.Height}
}

// ============================================================
// Export
// ============================================================

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := dataset.ExportCSV(s.store.Table())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", dataset.ExportFileName, data)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := dataset.ExportXLSX(s.store.Table())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsxFileName, data)
}

func (s *Server) handleExportDataURI(w http.ResponseWriter, r *http.Request) {
	uri, err := dataset.DataURI(s.store.Table())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    DataURIResponse{Filename: dataset.ExportFileName, URI: uri},
	})
}

const xlsxFileName = "df.xlsx"

func writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ============================================================
// Dataset reload
// ============================================================

// handleReload re-reads the data file. On failure the previous table keeps
// serving and the load error is returned.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reload(); err != nil {
		writeDomainError(w, err)
		return
	}
	t := s.store.Table()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ReloadResponse{
			Rows:     t.Len(),
			Crops:    t.Crops(),
			LoadedAt: s.store.LoadedAt(),
		},
	})
}

// ============================================================
// Dashboard page
// ============================================================

// handlePage renders the full dashboard page for ?view=&crop=&data=&code=.
// An empty crop shows the no-data message with status 200.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	t := s.store.Table()
	sel, err := s.selection(r, t)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	panel, renderErr := s.dash.Render(t, sel)

	uri, err := dataset.DataURI(t)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := report.BuildPage(report.PageInput{
		Title:      s.cfg.Dashboard.Title,
		Crops:      t.Crops(),
		Selection:  sel,
		Panel:      panel,
		Err:        renderErr,
		DataURI:    uri,
		ExportName: dataset.ExportFileName,
		Credits:    s.cfg.Dashboard.Credits,
		SourceURL:  s.cfg.Dashboard.SourceURL,
		Config:     s.renderConfig(),
		Now:        time.Now(),
	})

	var buf bytes.Buffer
	if err := report.GeneratePage(&buf, data); err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
