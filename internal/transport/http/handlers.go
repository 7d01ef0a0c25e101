package transporthttp

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"example.com/timeclock/internal/config"
	"example.com/timeclock/internal/domain"
	"example.com/timeclock/internal/geofence"
	"example.com/timeclock/internal/ingest"
	spg "example.com/timeclock/internal/storage/postgres"
	"example.com/timeclock/internal/timecalc"
)

type ServerDeps struct {
	Cfg      config.Config
	Ingestor *ingest.Ingestor
	DB       *spg.DB
	Now      func() time.Time
	Loc      *time.Location

	cache *summaryCache
}

const summaryCacheTTL = 30 * time.Second

func decodeJSONStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// --- Health ---

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := d.DB.Ready(r.Context()); err != nil {
		WriteProblem(w, http.StatusServiceUnavailable, "not ready", "database not reachable", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// --- Punches (single) ---

// admitPunch runs the geofence check for a punch carrying coordinates.
// It returns a problem status and detail when the punch must be rejected;
// status 0 means the punch may proceed (Verified set when admitted).
func (d *ServerDeps) admitPunch(r *http.Request, p *domain.Punch) (status int, detail string) {
	if p.Latitude == nil {
		if d.Cfg.RequireGeofence {
			return http.StatusBadRequest, "coordinates are required when geofence verification is enforced"
		}
		return 0, ""
	}

	sites, err := d.DB.ListSites(r.Context())
	if err != nil {
		return http.StatusInternalServerError, "site registry unavailable"
	}

	decision := geofence.Admit(geofence.Point{Latitude: *p.Latitude, Longitude: *p.Longitude}, sites)
	if decision.Admitted {
		p.Verified = true
		return 0, ""
	}
	if !d.Cfg.RequireGeofence {
		// Location known but unverified; keep the punch, leave Verified false.
		return 0, ""
	}
	if decision.Nearest == nil {
		// Operator problem, not a user problem: nothing to measure against.
		return http.StatusServiceUnavailable, "no geofence sites are configured"
	}
	outside := *decision.DistanceMeters - decision.Nearest.RadiusMeters
	return http.StatusForbidden,
		"you are " + strconv.FormatFloat(outside, 'f', 0, 64) + "m outside the " +
			strconv.FormatFloat(decision.Nearest.RadiusMeters, 'f', 0, 64) + "m radius of " + decision.Nearest.Name
}

func (d *ServerDeps) HandlePostPunch(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var p domain.Punch
	if err := decodeJSONStrict(r, &p); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	if errs := domain.ValidatePunch(&p, d.Now(), d.Cfg.ClockSkew); len(errs) > 0 {
		WriteValidation(w, errs)
		return
	}
	if status, detail := d.admitPunch(r, &p); status != 0 {
		WriteProblem(w, status, "punch rejected", detail, nil)
		return
	}

	if ok := d.Ingestor.Enqueue(p); !ok {
		WriteProblem(w, http.StatusServiceUnavailable, "overloaded", "ingest queue is full, please retry", nil)
		return
	}
	log.Printf("[api] queued 1 punch: subject=%s kind=%s ts=%d verified=%t", p.SubjectID, p.Kind, p.Timestamp, p.Verified)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "queued", "verified": p.Verified})
}

// --- Punches (bulk, kiosk/QR import path) ---

type bulkReq struct {
	Punches []domain.Punch `json:"punches"`
}

func (d *ServerDeps) HandlePostPunchesBulk(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var br bulkReq
	if err := decodeJSONStrict(r, &br); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	ptrs := make([]*domain.Punch, len(br.Punches))
	for i := range br.Punches {
		ptrs[i] = &br.Punches[i]
	}
	if all, top := domain.ValidateBulk(ptrs, 100, d.Now(), d.Cfg.ClockSkew); top != nil {
		prob := map[string][]string{}
		for i, arr := range all {
			if len(arr) == 0 {
				continue
			}
			k := "punches[" + strconv.Itoa(i) + "]"
			for _, fe := range arr {
				prob[k+"."+fe.Field] = append(prob[k+"."+fe.Field], fe.Msg)
			}
		}
		WriteProblem(w, http.StatusBadRequest, "validation failed", top.Error(), prob)
		return
	}
	for i := range br.Punches {
		if status, detail := d.admitPunch(r, &br.Punches[i]); status != 0 {
			WriteProblem(w, status, "punch rejected", "punches["+strconv.Itoa(i)+"]: "+detail, nil)
			return
		}
	}
	for _, p := range br.Punches {
		if ok := d.Ingestor.Enqueue(p); !ok {
			WriteProblem(w, http.StatusServiceUnavailable, "overloaded", "ingest queue is full, please retry", nil)
			return
		}
	}
	log.Printf("[api] queued %d punches (bulk)", len(br.Punches))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"accepted_count":` + strconv.Itoa(len(br.Punches)) + `}`))
}

// --- Status ---

type statusResp struct {
	SubjectID string              `json:"subject_id"`
	State     timecalc.ClockState `json:"state"`
	LastPunch *domain.Punch       `json:"last_punch,omitempty"`
}

func (d *ServerDeps) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	subject := r.URL.Query().Get("subject_id")
	if subject == "" {
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", "subject_id is required", nil)
		return
	}

	now := d.Now()
	day := timecalc.DayStart(now, d.Loc)
	punches, err := d.DB.LedgerWindow(r.Context(), subject, day.Unix(), day.AddDate(0, 0, 1).Unix())
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}

	resp := statusResp{SubjectID: subject, State: timecalc.Status(punches)}
	if len(punches) > 0 {
		resp.LastPunch = &punches[len(punches)-1]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// --- Summary ---

type dayTotals struct {
	Date          string `json:"date"`
	WorkedMinutes int    `json:"worked_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
}

type summaryResp struct {
	SubjectID     string      `json:"subject_id"`
	Window        string      `json:"window"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Days          []dayTotals `json:"days"`
	WorkedMinutes int         `json:"worked_minutes"`
	BreakMinutes  int         `json:"break_minutes"`
}

func (d *ServerDeps) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	subject := q.Get("subject_id")
	if subject == "" {
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", "subject_id is required", nil)
		return
	}
	window := q.Get("window")
	if window == "" {
		window = "day"
	}

	now := d.Now()
	anchor := now
	if ds := q.Get("date"); ds != "" {
		t, err := time.ParseInLocation("2006-01-02", ds, d.Loc)
		if err != nil {
			WriteProblem(w, http.StatusBadRequest, "invalid parameters", "date must be YYYY-MM-DD", nil)
			return
		}
		anchor = t
	}

	var from, to time.Time
	switch window {
	case "day":
		from = timecalc.DayStart(anchor, d.Loc)
		to = from.AddDate(0, 0, 1)
	case "week":
		from = timecalc.WeekStart(anchor, d.Loc)
		to = from.AddDate(0, 0, 7)
	case "month":
		from = timecalc.MonthStart(anchor, d.Loc)
		to = from.AddDate(0, 1, 0)
	default:
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", "window must be day, week or month", nil)
		return
	}

	cacheKey := subject + "|" + window + "|" + from.Format("2006-01-02")
	if resp, ok := d.cache.get(cacheKey, now); ok {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	resp := summaryResp{
		SubjectID: subject,
		Window:    window,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
	}

	ctx := r.Context()
	for _, day := range timecalc.Days(from, to) {
		if day.After(now) {
			break
		}
		next := day.AddDate(0, 0, 1)
		punches, err := d.DB.LedgerWindow(ctx, subject, day.Unix(), next.Unix())
		if err != nil {
			WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
			return
		}

		// Only a day that contains "now" can have a legitimately open
		// session; fully past days get no accrual cursor.
		var asOf *time.Time
		if next.After(now) {
			asOf = &now
		}
		totals := timecalc.Reduce(punches, asOf)

		resp.Days = append(resp.Days, dayTotals{
			Date:          day.Format("2006-01-02"),
			WorkedMinutes: totals.WorkedMinutes,
			BreakMinutes:  totals.BreakMinutes,
		})
		resp.WorkedMinutes += totals.WorkedMinutes
		resp.BreakMinutes += totals.BreakMinutes

		if asOf == nil && len(punches) > 0 {
			// Populate the derived cache for completed days; never load-bearing.
			err := d.DB.UpsertDailyTotals(ctx, domain.DailyTotals{
				SubjectID:     subject,
				Date:          day.Format("2006-01-02"),
				WorkedMinutes: totals.WorkedMinutes,
				BreakMinutes:  totals.BreakMinutes,
			})
			if err != nil {
				log.Printf("[api] daily totals cache write failed: %v", err)
			}
		}
	}

	d.cache.put(cacheKey, subject, resp, now)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// --- Sites ---

func (d *ServerDeps) HandleSites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sites, err := d.DB.ListSites(r.Context())
		if err != nil {
			WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
			return
		}
		if sites == nil {
			sites = []domain.Site{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"sites": sites})
	case http.MethodPost:
		defer DrainBody(r)
		var s domain.Site
		if err := decodeJSONStrict(r, &s); err != nil {
			WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
			return
		}
		if errs := domain.ValidateSite(&s); len(errs) > 0 {
			WriteValidation(w, errs)
			return
		}
		s.SiteID = uuid.NewString()
		if err := d.DB.CreateSite(r.Context(), &s); err != nil {
			WriteProblem(w, http.StatusInternalServerError, "insert error", err.Error(), nil)
			return
		}
		log.Printf("[api] site created: id=%s name=%s radius=%.0fm", s.SiteID, s.Name, s.RadiusMeters)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- Geofence dry run ---

func (d *ServerDeps) HandleGeofenceCheck(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var pt geofence.Point
	if err := decodeJSONStrict(r, &pt); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	if pt.Latitude < -90 || pt.Latitude > 90 || pt.Longitude < -180 || pt.Longitude > 180 {
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", "coordinates out of range", nil)
		return
	}
	sites, err := d.DB.ListSites(r.Context())
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(geofence.Admit(pt, sites))
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	if d.cache == nil {
		d.cache = newSummaryCache(summaryCacheTTL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.HandleHealthz)
	mux.HandleFunc("/readyz", d.HandleReadyz)

	post := func(h http.HandlerFunc) http.Handler {
		var wrapped http.Handler = h
		wrapped = BodyLimit(d.Cfg.MaxBodyBytes)(wrapped)
		wrapped = RequireJSON(wrapped)
		wrapped = APIKeyAuth(d.Cfg.APIKeys)(wrapped)
		return wrapped
	}

	mux.Handle("/punches", post(d.HandlePostPunch))
	mux.Handle("/punches/bulk", post(d.HandlePostPunchesBulk))
	mux.Handle("/geofence/check", post(d.HandleGeofenceCheck))
	mux.Handle("/sites", post(d.HandleSites))

	var getStatus http.Handler = http.HandlerFunc(d.HandleGetStatus)
	getStatus = APIKeyAuth(d.Cfg.APIKeys)(getStatus)
	mux.Handle("/status", getStatus)

	var getSummary http.Handler = http.HandlerFunc(d.HandleGetSummary)
	getSummary = RateLimitPerMinute(d.Cfg.RateLimitSummaryPerMin, "/summary", d.Now)(getSummary)
	getSummary = APIKeyAuth(d.Cfg.APIKeys)(getSummary)
	mux.Handle("/summary", getSummary)

	return mux
}
