package api

import (
	"bytes"
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/JockeTS/mazerunner/game/service"
)

// Response formats selected with the "type" query parameter
const (
	FormatJSON  = "json"
	FormatPlain = "plain"
	FormatHTML  = "html"
	FormatZip   = "zip"
	FormatCSV   = "csv"
)

// zipEntryName is the single file inside a zip response.
const zipEntryName = "response.json"

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/response.html"))

// gameList is the body of /api/games
type gameList struct {
	Count int                 `json:"count"`
	Games []*service.GameInfo `json:"games"`
}

// table is the flat form of a response used by the csv, plain and html formats.
type table struct {
	columns []string
	rows    [][]string
}

// respond writes data in the format requested by r. Unknown formats fall
// back to JSON.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	switch r.URL.Query().Get("type") {
	case FormatPlain:
		respondPlain(w, status, tabulate(data))
	case FormatHTML:
		respondHTML(w, status, tabulate(data))
	case FormatZip:
		respondZip(w, status, data)
	case FormatCSV:
		respondCSV(w, status, tabulate(data))
	default:
		respondJSON(w, status, data)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondPlain(w http.ResponseWriter, status int, t table) {
	var buf bytes.Buffer
	for i, row := range t.rows {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for j, col := range t.columns {
			fmt.Fprintf(&buf, "%s: %s\n", col, row[j])
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func respondHTML(w http.ResponseWriter, status int, t table) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title   string
		Columns []string
		Rows    [][]string
	}{
		Title:   "Mazerunner",
		Columns: t.columns,
		Rows:    t.rows,
	})
	if err != nil {
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func respondCSV(w http.ResponseWriter, status int, t table) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write(t.columns)
	cw.WriteAll(t.rows)
	if err := cw.Error(); err != nil {
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func respondZip(w http.ResponseWriter, status int, data interface{}) {
	archive, err := zipJSON(data)
	if err != nil {
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="response.zip"`)
	w.WriteHeader(status)
	w.Write(archive)
}

// zipJSON returns a zip archive holding data encoded as response.json.
func zipJSON(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	f, err := zw.Create(zipEntryName)
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(f).Encode(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tabulate flattens a response body. Room exits become one column per
// direction label, in sorted order; lists become index columns.
func tabulate(data interface{}) table {
	switch v := data.(type) {
	case *service.RoomView:
		return singleRow(roomFields(v))
	case roomErrorResponse:
		fields := roomFields(&v.RoomView)
		fields = append(fields, [2]string{"hint", v.Hint}, [2]string{"code", v.Code})
		return singleRow(fields)
	case errorResponse:
		return singleRow([][2]string{{"text", v.Text}, {"hint", v.Hint}, {"code", v.Code}})
	case *service.NewGameInfo:
		return singleRow([][2]string{{"text", v.Text}, {"gameid", v.GameID}})
	case *service.Message:
		return singleRow([][2]string{{"text", v.Text}})
	case []string:
		fields := make([][2]string, len(v))
		for i, s := range v {
			fields[i] = [2]string{strconv.Itoa(i), s}
		}
		return singleRow(fields)
	case *service.GameInfo:
		return singleRow(gameFields(v))
	case gameList:
		t := table{columns: gameColumns}
		for _, g := range v.Games {
			row := make([]string, 0, len(gameColumns))
			for _, f := range gameFields(g) {
				row = append(row, f[1])
			}
			t.rows = append(t.rows, row)
		}
		return t
	default:
		return singleRow([][2]string{{"value", fmt.Sprint(v)}})
	}
}

func singleRow(fields [][2]string) table {
	t := table{
		columns: make([]string, 0, len(fields)),
		rows:    [][]string{make([]string, 0, len(fields))},
	}
	for _, f := range fields {
		t.columns = append(t.columns, f[0])
		t.rows[0] = append(t.rows[0], f[1])
	}
	return t
}

func roomFields(room *service.RoomView) [][2]string {
	fields := [][2]string{{"id", room.ID}, {"text", room.Text}}

	labels := make([]string, 0, len(room.Directions))
	for label := range room.Directions {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fields = append(fields, [2]string{label, room.Directions[label]})
	}
	return fields
}

var gameColumns = []string{"gameid", "map", "state", "last_room", "created_at", "last_accessed_at"}

func gameFields(g *service.GameInfo) [][2]string {
	return [][2]string{
		{"gameid", g.GameID},
		{"map", g.Map},
		{"state", string(g.State)},
		{"last_room", g.LastRoom},
		{"created_at", g.CreatedAt.Format(time.RFC3339)},
		{"last_accessed_at", g.LastAccessedAt.Format(time.RFC3339)},
	}
}
