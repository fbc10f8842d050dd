package drawer

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/stepline/stepline/pkg/pipeline/model"
)

// SVGDrawer is a drawer that creates a SVG-compatible DOT file with the step
// graph. Steps are coloured along a blue-to-red ramp by fit duration; cached
// steps keep the neutral colour.
type SVGDrawer struct {
	graph       graph.Graph[string, string]
	steps       map[string]struct{}
	fits        map[string]time.Duration
	transforms  map[string]time.Duration
	cached      map[string]struct{}
	dotFileName string
}

// NewSVGDrawer creates a new SVG drawer writing to dotFileName.
func NewSVGDrawer(dotFileName string) *SVGDrawer {
	return &SVGDrawer{
		dotFileName: dotFileName,
		graph:       graph.New(graph.StringHash, graph.Directed()),
		steps:       make(map[string]struct{}),
		fits:        make(map[string]time.Duration),
		transforms:  make(map[string]time.Duration),
		cached:      make(map[string]struct{}),
	}
}

// AddStep adds a step to the graph.
func (d *SVGDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.steps[name] = struct{}{}

	return nil
}

// AddLink adds a link between an input step and the step consuming it.
func (d *SVGDrawer) AddLink(inputName, name string) error {
	err := d.graph.AddEdge(inputName, name)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", inputName, name)
	}

	return nil
}

// SetFitDuration records how long a step's fit took.
func (d *SVGDrawer) SetFitDuration(name string, elapsed time.Duration) error {
	d.fits[name] = elapsed

	return nil
}

// SetTransformDuration records how long a step's transform took.
func (d *SVGDrawer) SetTransformDuration(name string, elapsed time.Duration) error {
	d.transforms[name] = elapsed

	return nil
}

// MarkCached marks a step that loaded a persisted state instead of fitting.
func (d *SVGDrawer) MarkCached(name string) error {
	d.cached[name] = struct{}{}

	return nil
}

const maxRGB = 240

// colourRamp maps every recorded fit duration to a hex colour between blue
// (fastest) and red (slowest).
func (d *SVGDrawer) colourRamp() (map[string]string, error) {
	ramp := make(map[string]string, len(d.fits))
	if len(d.fits) == 0 {
		return ramp, nil
	}

	var minValue, maxValue time.Duration
	first := true
	for _, elapsed := range d.fits {
		if first || elapsed < minValue {
			minValue = elapsed
		}
		if first || elapsed > maxValue {
			maxValue = elapsed
		}
		first = false
	}

	for name, elapsed := range d.fits {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(elapsed-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - maxRGB*fraction

		clr, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}

		ramp[name] = clr.ToHEX().String()
	}

	return ramp, nil
}

// Draw creates a DOT file with the annotated step graph.
func (d *SVGDrawer) Draw() error {
	ramp, err := d.colourRamp()
	if err != nil {
		return err
	}

	for name := range d.steps {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		label := ""
		if _, ok := d.cached[name]; ok {
			label = "cached"
		} else if elapsed, ok := d.fits[name]; ok {
			label = "fit: " + elapsed.String()
		}
		if elapsed, ok := d.transforms[name]; ok {
			if label != "" {
				label += ", "
			}
			label += "transform: " + elapsed.String()
		}
		if label != "" {
			properties.Attributes["xlabel"] = label
		}

		if hex, ok := ramp[name]; ok {
			properties.Attributes["color"] = hex
		}
	}

	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", d.dotFileName)
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute is a functional option for the [dot] renderer.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)

		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)

			delete(sourceProperties.Attributes, "xlabel")
		}

		stmt := statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		}
		desc.Statements = append(desc.Statements, stmt)

		for adjacency, edge := range adjacencies {
			stmt := statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			}
			desc.Statements = append(desc.Statements, stmt)
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse template")
	}

	return tpl.Execute(wrt, desc)
}

var _ Drawer = (*SVGDrawer)(nil)

// PipelineDrawer returns a pipeline option that feeds the drawer as steps are
// registered and resolved, and draws the graph when a run finishes.
func PipelineDrawer(drawer Drawer) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer}
}
