package api

import (
	"fmt"
	"math"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/occupancy"
	"github.com/annel0/gridkit/internal/placement"
	"github.com/annel0/gridkit/internal/vec"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Cell координаты ячейки в JSON
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func cellOf(v vec.Vec2) Cell   { return Cell{X: v.X, Y: v.Y} }
func (c Cell) toVec() vec.Vec2 { return vec.Vec2{X: c.X, Y: c.Y} }

// PlacementRequest описывает размещение в запросе. Набор значимых полей
// зависит от типа объекта: cell для area/edge/corner, corner для
// corner, flipped для edge, position для free.
type PlacementRequest struct {
	Descriptor string         `json:"descriptor"`
	Grid       string         `json:"grid"`
	Layer      int            `json:"layer"`
	Cell       Cell           `json:"cell"`
	Corner     string         `json:"corner"`
	Flipped    bool           `json:"flipped"`
	Position   *vec.Vec3Float `json:"position"`
	Direction  string         `json:"direction"`
	Angle      float64        `json:"angle"`
	Variant    int            `json:"variant"`
}

func (r PlacementRequest) toPlacement(d *buildable.Descriptor) (buildable.Placement, error) {
	p := buildable.Placement{Grid: r.Grid, Layer: r.Layer, Variant: r.Variant}

	switch d.Kind {
	case grid.KindArea:
		p.Shape = buildable.AreaShape{Anchor: r.Cell.toVec()}
	case grid.KindEdge:
		p.Shape = buildable.EdgeShape{Anchor: r.Cell.toVec(), Flipped: r.Flipped}
	case grid.KindCorner:
		corner, err := grid.ParseCorner(r.Corner)
		if err != nil {
			return p, err
		}
		p.Shape = buildable.CornerShape{Anchor: r.Cell.toVec(), Corner: corner}
	case grid.KindFree:
		if r.Position == nil {
			return p, fmt.Errorf("для free-объекта %s нужна position", d.ID)
		}
		p.Shape = buildable.FreeShape{Position: *r.Position}
	}

	switch d.RotationType {
	case buildable.FreeRotation:
		p.Rotation = buildable.AngleRotation(r.Angle)
	case buildable.EightDirectional:
		step := math.Round(buildable.AngleRotation(r.Angle).Angle / 45)
		p.Rotation = buildable.EightRotation(buildable.EightDirection(int(step) % 8))
	default:
		dir, err := grid.ParseDirection(r.Direction)
		if err != nil {
			return p, err
		}
		p.Rotation = buildable.FourRotation(dir)
	}
	return p, nil
}

// SlotView место объекта в ответе
type SlotView struct {
	Cell   Cell   `json:"cell"`
	Edge   string `json:"edge,omitempty"`
	Corner string `json:"corner,omitempty"`
}

func slotsView(kind grid.ObjectKind, slots []grid.Slot) []SlotView {
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		v := SlotView{Cell: cellOf(s.Cell)}
		switch kind {
		case grid.KindEdge:
			v.Edge = s.Edge.String()
		case grid.KindCorner:
			v.Corner = s.Corner.String()
		}
		out = append(out, v)
	}
	return out
}

// ObjectView размещённый объект в ответе
type ObjectView struct {
	ID         buildable.ObjectID `json:"id"`
	Descriptor string             `json:"descriptor"`
	Kind       string             `json:"kind"`
	Category   string             `json:"category"`
	Grid       string             `json:"grid"`
	Layer      int                `json:"layer"`
	Rotation   string             `json:"rotation"`
	Degrees    float64            `json:"degrees"`
	Variant    int                `json:"variant"`
	Position   *vec.Vec3Float     `json:"position,omitempty"`
	Flipped    bool               `json:"flipped,omitempty"`
	Slots      []SlotView         `json:"slots"`
}

func objectView(obj *buildable.Object) ObjectView {
	v := ObjectView{
		ID:         obj.ID,
		Descriptor: obj.Descriptor.ID,
		Kind:       obj.Descriptor.Kind.String(),
		Category:   obj.Descriptor.Category,
		Grid:       obj.Placement.Grid,
		Layer:      obj.Placement.Layer,
		Rotation:   obj.Placement.Rotation.String(),
		Degrees:    obj.Placement.Rotation.Degrees(),
		Variant:    obj.Placement.Variant,
		Slots:      slotsView(obj.Descriptor.Kind, obj.Footprint),
	}
	switch s := obj.Placement.Shape.(type) {
	case buildable.FreeShape:
		pos := s.Position
		v.Position = &pos
	case buildable.EdgeShape:
		v.Flipped = s.Flipped
	}
	return v
}

// DecisionView итог проверки размещения
type DecisionView struct {
	Allowed bool                 `json:"allowed"`
	Reason  string               `json:"reason"`
	Cell    Cell                 `json:"cell"`
	Replace []buildable.ObjectID `json:"replace,omitempty"`
}

func decisionView(d placement.Decision) DecisionView {
	return DecisionView{Allowed: d.Allowed(), Reason: d.Reason.String(), Cell: cellOf(d.Cell), Replace: d.Replace}
}

// PreviewView предпросмотр размещения
type PreviewView struct {
	Decision DecisionView  `json:"decision"`
	Position vec.Vec3Float `json:"position"`
	Slots    []SlotView    `json:"slots"`
}

// ResultView итог операции размещения
type ResultView struct {
	Success  bool                 `json:"success"`
	Decision DecisionView         `json:"decision"`
	Object   *ObjectView          `json:"object,omitempty"`
	Replaced []buildable.ObjectID `json:"replaced,omitempty"`
}

func resultView(r placement.Result) ResultView {
	v := ResultView{Success: r.Success, Decision: decisionView(r.Decision), Replaced: r.Replaced}
	if r.Object != nil {
		obj := objectView(r.Object)
		v.Object = &obj
	}
	return v
}

// GridView описание сетки
type GridView struct {
	Name        string        `json:"name"`
	Orientation string        `json:"orientation"`
	Origin      vec.Vec3Float `json:"origin"`
	Width       int           `json:"width"`
	Length      int           `json:"length"`
	CellSize    float64       `json:"cell_size"`
	Layers      int           `json:"layers"`
	LayerHeight float64       `json:"layer_height"`
	Active      bool          `json:"active"`
}

// CellView содержимое ячейки: category → объект
type CellView struct {
	Cell    Cell                                     `json:"cell"`
	Layer   int                                      `json:"layer"`
	Area    map[string]buildable.ObjectID            `json:"area,omitempty"`
	Edges   map[string]map[string]buildable.ObjectID `json:"edges,omitempty"`
	Corners map[string]map[string]buildable.ObjectID `json:"corners,omitempty"`
	Free    []buildable.ObjectID                     `json:"free,omitempty"`
}

func cellView(cell vec.Vec2, layer int, rec occupancy.Record) CellView {
	v := CellView{Cell: cellOf(cell), Layer: layer, Area: rec.Area, Free: rec.Free}
	for d, m := range rec.Edges {
		if len(m) == 0 {
			continue
		}
		if v.Edges == nil {
			v.Edges = make(map[string]map[string]buildable.ObjectID)
		}
		v.Edges[grid.Direction(d).String()] = m
	}
	for c, m := range rec.Corners {
		if len(m) == 0 {
			continue
		}
		if v.Corners == nil {
			v.Corners = make(map[string]map[string]buildable.ObjectID)
		}
		v.Corners[grid.Corner(c).String()] = m
	}
	return v
}

// DescriptorView тип объекта
type DescriptorView struct {
	ID           string             `json:"id"`
	Kind         string             `json:"kind"`
	Category     string             `json:"category"`
	Rotation     string             `json:"rotation"`
	Replaceable  bool               `json:"replaceable"`
	Destructible bool               `json:"destructible"`
	Movable      bool               `json:"movable"`
	CustomValues map[string]float64 `json:"custom_values,omitempty"`
}

func descriptorView(d *buildable.Descriptor) DescriptorView {
	return DescriptorView{
		ID:           d.ID,
		Kind:         d.Kind.String(),
		Category:     d.Category,
		Rotation:     d.RotationType.String(),
		Replaceable:  d.Is(buildable.FlagReplaceable),
		Destructible: d.Is(buildable.FlagDestructible),
		Movable:      d.Is(buildable.FlagMovable),
		CustomValues: d.CustomValues,
	}
}

// HeatMapView нормированная тепловая карта, values[y*width+x]
type HeatMapView struct {
	Name   string    `json:"name"`
	Width  int       `json:"width"`
	Length int       `json:"length"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Values []float64 `json:"values"`
}
