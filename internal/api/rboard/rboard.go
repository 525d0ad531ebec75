package rboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"opsboard/server/internal/api"
	"opsboard/server/pkg/areas"
	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/compress"
	"opsboard/server/pkg/eventstream"
	"opsboard/server/pkg/fuzzyfinder"
	"opsboard/server/pkg/model/moperation"
	"opsboard/server/pkg/optimistic"
	"opsboard/server/pkg/service/sboard"

	"github.com/goccy/go-json"
)

// PathPrefix is where the board service is mounted.
const PathPrefix = "/board.v1.BoardService/"

// Streamer is the subscription side of the coordinator's event stream.
type Streamer interface {
	Subscribe(ctx context.Context, filter eventstream.TopicFilter[string]) (<-chan eventstream.Event[string, optimistic.BoardEvent], error)
}

type BoardRPC struct {
	boardID string
	coord   *optimistic.Coordinator
	stream  Streamer
	logger  *slog.Logger
}

func New(boardID string, coord *optimistic.Coordinator, stream Streamer, logger *slog.Logger) BoardRPC {
	return BoardRPC{boardID: boardID, coord: coord, stream: stream, logger: logger}
}

func CreateService(srv BoardRPC) (*api.Service, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathPrefix+"DragEnd", srv.DragEnd)
	mux.HandleFunc("POST "+PathPrefix+"OperationCreate", srv.OperationCreate)
	mux.HandleFunc("POST "+PathPrefix+"AreaAdd", srv.AreaAdd)
	mux.HandleFunc("POST "+PathPrefix+"AreaRename", srv.AreaRename)
	mux.HandleFunc("POST "+PathPrefix+"AreaDelete", srv.AreaDelete)
	mux.HandleFunc("POST "+PathPrefix+"AreaReorder", srv.AreaReorder)
	mux.HandleFunc("GET "+PathPrefix+"Board", srv.Board)
	mux.HandleFunc("GET "+PathPrefix+"Search", srv.Search)
	mux.HandleFunc("GET "+PathPrefix+"Export", srv.Export)
	mux.HandleFunc("GET "+PathPrefix+"Events", srv.Events)
	return &api.Service{Path: PathPrefix, Handler: mux}, nil
}

type dragEndRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

type mutationResponse struct {
	MutationID string `json:"mutationId,omitempty"`
	Noop       bool   `json:"noop,omitempty"`
}

// DragEnd consumes the gesture collaborator's terminal event. The response
// reports only the optimistic outcome; the settle arrives on the Events
// stream, matching the fire-and-forget contract.
func (b BoardRPC) DragEnd(w http.ResponseWriter, r *http.Request) {
	var req dragEndRequest
	if !b.decode(w, r, &req) {
		return
	}
	m, err := b.coord.DragEnd(r.Context(), req.ActiveID, req.OverID)
	if err != nil {
		b.writeError(w, err)
		return
	}
	if m == nil {
		b.writeJSON(w, http.StatusOK, mutationResponse{Noop: true})
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type operationCreateRequest struct {
	Name     string `json:"name"`
	AreaName string `json:"areaName"`
	Kind     int8   `json:"kind"`
	Notes    string `json:"notes"`
}

func (b BoardRPC) OperationCreate(w http.ResponseWriter, r *http.Request) {
	var req operationCreateRequest
	if !b.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.AreaName == "" {
		b.writeError(w, errBadRequest("name and areaName are required"))
		return
	}
	m, err := b.coord.AddOperation(r.Context(), moperation.Operation{
		Name:     req.Name,
		AreaName: req.AreaName,
		Kind:     req.Kind,
		Notes:    req.Notes,
	})
	if err != nil {
		b.writeError(w, err)
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type areaAddRequest struct {
	Name string `json:"name"`
}

func (b BoardRPC) AreaAdd(w http.ResponseWriter, r *http.Request) {
	var req areaAddRequest
	if !b.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		b.writeError(w, errBadRequest("name is required"))
		return
	}
	m, err := b.coord.AddArea(r.Context(), req.Name)
	if err != nil {
		b.writeError(w, err)
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type areaRenameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func (b BoardRPC) AreaRename(w http.ResponseWriter, r *http.Request) {
	var req areaRenameRequest
	if !b.decode(w, r, &req) {
		return
	}
	if req.OldName == "" || req.NewName == "" {
		b.writeError(w, errBadRequest("oldName and newName are required"))
		return
	}
	m, err := b.coord.RenameArea(r.Context(), req.OldName, req.NewName)
	if err != nil {
		b.writeError(w, err)
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type areaDeleteRequest struct {
	Name       string  `json:"name"`
	TargetName *string `json:"targetName,omitempty"`
}

func (b BoardRPC) AreaDelete(w http.ResponseWriter, r *http.Request) {
	var req areaDeleteRequest
	if !b.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		b.writeError(w, errBadRequest("name is required"))
		return
	}
	m, err := b.coord.DeleteArea(r.Context(), req.Name, req.TargetName)
	if err != nil {
		b.writeError(w, err)
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type areaReorderRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

func (b BoardRPC) AreaReorder(w http.ResponseWriter, r *http.Request) {
	var req areaReorderRequest
	if !b.decode(w, r, &req) {
		return
	}
	current := b.coord.Store().Board().Areas
	next, err := areas.Reorder(current, req.FromIndex, req.ToIndex)
	if err != nil {
		b.writeError(w, err)
		return
	}
	names := make([]string, len(next))
	for i, a := range next {
		names[i] = a.Name
	}
	m, err := b.coord.ReorderAreas(r.Context(), names)
	if err != nil {
		b.writeError(w, err)
		return
	}
	b.writeJSON(w, http.StatusAccepted, mutationResponse{MutationID: m.ID.String()})
}

type boardResponse struct {
	Version uint64          `json:"version"`
	Areas   []areaView      `json:"areas"`
	Orphans []operationView `json:"orphans,omitempty"`
}

type areaView struct {
	Name         string          `json:"name"`
	DisplayOrder int             `json:"displayOrder"`
	Operations   []operationView `json:"operations"`
}

type operationView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position float64 `json:"position"`
	Kind     int8    `json:"kind"`
	Notes    string  `json:"notes,omitempty"`
}

// Board renders the grouped local view: areas in canonical order, each with
// its operations in position order, orphans in the trailing default bucket.
func (b BoardRPC) Board(w http.ResponseWriter, r *http.Request) {
	state := b.coord.Store().Board()
	idx := boardindex.Build(state)

	resp := boardResponse{Version: b.coord.Store().Version()}
	orderByName := make(map[string]int, len(state.Areas))
	for _, a := range state.Areas {
		orderByName[a.Name] = a.DisplayOrder
	}
	for _, name := range idx.ConfiguredAreaOrder() {
		view := areaView{Name: name, DisplayOrder: orderByName[name], Operations: []operationView{}}
		for _, op := range idx.ByArea[name] {
			view.Operations = append(view.Operations, operationToView(op))
		}
		resp.Areas = append(resp.Areas, view)
	}
	if idx.DefaultSynthesized {
		for _, op := range idx.ByArea[boardindex.DefaultAreaName] {
			resp.Orphans = append(resp.Orphans, operationToView(op))
		}
	}
	b.writeJSON(w, http.StatusOK, resp)
}

func operationToView(op moperation.Operation) operationView {
	return operationView{
		ID:       op.ID.String(),
		Name:     op.Name,
		Position: op.Position,
		Kind:     op.Kind,
		Notes:    op.Notes,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Operation operationView `json:"operation"`
	AreaName  string        `json:"areaName"`
	Distance  int           `json:"distance"`
}

// Search fuzzy-ranks operations by name.
func (b BoardRPC) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		b.writeError(w, errBadRequest("q is required"))
		return
	}

	state := b.coord.Store().Board()
	names := make([]string, len(state.Operations))
	for i, op := range state.Operations {
		names[i] = op.Name
	}

	resp := searchResponse{Results: []searchResult{}}
	for _, rank := range fuzzyfinder.RankFindFold(names, query) {
		op := state.Operations[rank.OriginalIndex]
		resp.Results = append(resp.Results, searchResult{
			Operation: operationToView(op),
			AreaName:  op.AreaName,
			Distance:  rank.Distance,
		})
	}
	b.writeJSON(w, http.StatusOK, resp)
}

// Export streams the raw board state as JSON, compressed per Accept-Encoding.
func (b BoardRPC) Export(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(b.coord.Store().Board())
	if err != nil {
		b.writeError(w, err)
		return
	}

	encoding := compress.Negotiate(r.Header.Get("Accept-Encoding"))
	body, err := compress.Compress(data, encoding)
	if err != nil {
		b.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", compress.ContentEncoding(encoding))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Events streams mutation lifecycle events as newline-delimited JSON until
// the client goes away.
func (b BoardRPC) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		b.writeError(w, errors.New("streaming unsupported"))
		return
	}

	events, err := b.stream.Subscribe(r.Context(), func(topic string) bool { return topic == b.boardID })
	if err != nil {
		b.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case evt, open := <-events:
			if !open {
				return
			}
			if err := enc.Encode(evt.Payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (b BoardRPC) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.writeError(w, errBadRequest("invalid request body"))
		return false
	}
	return true
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

type badRequestError string

func errBadRequest(msg string) error { return badRequestError(msg) }

func (e badRequestError) Error() string { return string(e) }

func (b BoardRPC) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var dup areas.DuplicateNameError
	var bad badRequestError
	switch {
	case errors.As(err, &dup), errors.Is(err, sboard.ErrDuplicateAreaName):
		status = http.StatusConflict
	case errors.As(err, &bad):
		status = http.StatusBadRequest
	case errors.Is(err, areas.ErrAreaNotFound),
		errors.Is(err, optimistic.ErrAreaNotFound),
		errors.Is(err, optimistic.ErrOperationNotFound),
		errors.Is(err, sboard.ErrAreaNotFound),
		errors.Is(err, sboard.ErrOperationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, areas.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case optimistic.IsRetryable(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		b.logger.Error("request failed", "error", err)
	}
	b.writeJSON(w, status, errorResponse{Error: err.Error(), Retryable: optimistic.IsRetryable(err)})
}

func (b BoardRPC) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		b.logger.Error("encode response", "error", err)
	}
}
