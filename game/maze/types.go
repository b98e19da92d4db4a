package maze

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyGraph    = errors.New("map has no rooms")
	ErrDuplicateRoom = errors.New("duplicate room id")
	ErrMissingRoomID = errors.New("room has no id")
)

// RoomID identifies a room within one map. Map files may write it as a number
// or a string.
type RoomID string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *RoomID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("room id must be a string or a number: %w", err)
	}
	*id = RoomID(canonicalNumber(n.String()))
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *RoomID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("room id must be a scalar, got %s at line %d", nodeKind(value.Kind), value.Line)
	}
	if value.Tag == "!!null" {
		*id = ""
		return nil
	}
	switch value.Tag {
	case "!!int", "!!float":
		*id = RoomID(canonicalNumber(value.Value))
	default:
		*id = RoomID(value.Value)
	}
	return nil
}

// canonicalNumber renders a numeric id in its shortest decimal form, so 1,
// 1.0 and 1e0 all name room "1". Text that does not parse is kept as is.
func canonicalNumber(text string) string {
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return text
}

// Room is one node of a map.
type Room struct {
	ID         RoomID            `json:"id" yaml:"id"`
	Text       string            `json:"text" yaml:"text"`
	Directions map[string]RoomID `json:"directions" yaml:"directions"`
}

// Target returns the room id reached by leaving through direction.
func (r Room) Target(direction string) (RoomID, bool) {
	id, ok := r.Directions[direction]
	return id, ok
}

// DirectionLabels returns the exit labels in sorted order.
func (r Room) DirectionLabels() []string {
	labels := make([]string, 0, len(r.Directions))
	for label := range r.Directions {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (r Room) clone() Room {
	c := Room{ID: r.ID, Text: r.Text}
	if r.Directions != nil {
		c.Directions = make(map[string]RoomID, len(r.Directions))
		for k, v := range r.Directions {
			c.Directions[k] = v
		}
	}
	return c
}

// RoomGraph is an immutable, ordered collection of rooms keyed by id.
type RoomGraph struct {
	name  string
	order []RoomID
	rooms map[RoomID]Room
}

// NewRoomGraph builds a graph from rooms in map-file order. The first room
// becomes the entry room.
func NewRoomGraph(name string, rooms []Room) (*RoomGraph, error) {
	if len(rooms) == 0 {
		return nil, ErrEmptyGraph
	}

	g := &RoomGraph{
		name:  name,
		order: make([]RoomID, 0, len(rooms)),
		rooms: make(map[RoomID]Room, len(rooms)),
	}

	for i, room := range rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("%w: position %d", ErrMissingRoomID, i)
		}
		if _, exists := g.rooms[room.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRoom, room.ID)
		}
		g.rooms[room.ID] = room.clone()
		g.order = append(g.order, room.ID)
	}

	return g, nil
}

// Name returns the catalog name the graph was loaded under.
func (g *RoomGraph) Name() string {
	return g.name
}

// Entry returns the room at position 0.
func (g *RoomGraph) Entry() Room {
	return g.rooms[g.order[0]].clone()
}

// Room looks up a room by id.
func (g *RoomGraph) Room(id RoomID) (Room, bool) {
	room, ok := g.rooms[id]
	if !ok {
		return Room{}, false
	}
	return room.clone(), true
}

// Len returns the number of rooms.
func (g *RoomGraph) Len() int {
	return len(g.order)
}

// DanglingEdges lists "room/direction" pairs whose target is not in the graph.
func (g *RoomGraph) DanglingEdges() []string {
	var dangling []string
	for _, id := range g.order {
		room := g.rooms[id]
		for _, label := range room.DirectionLabels() {
			if _, ok := g.rooms[room.Directions[label]]; !ok {
				dangling = append(dangling, fmt.Sprintf("%s/%s", id, label))
			}
		}
	}
	return dangling
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "scalar"
	}
}
