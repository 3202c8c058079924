package prompt

import (
	"fmt"
	"strings"

	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/retrieval"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// LayerCount is fixed: every request renders exactly six layers, in
// order, whether or not upstream steps produced data.
const LayerCount = 6

const layerDelimiter = "\n---\n"

// Layers is the assembled generation request. Immutable once built.
type Layers struct {
	mode        types.TaskMode
	sourceNames []string
	hasContext  bool
	sections    [LayerCount]string
}

func (l Layers) Mode() types.TaskMode { return l.mode }

// Sections returns the six layers in fixed order: invariant rules,
// identity/scope, task mode, retrieved context, user input, output
// format.
func (l Layers) Sections() [LayerCount]string { return l.sections }

// HasContext reports whether layer 4 carries any retrieved chunk.
func (l Layers) HasContext() bool { return l.hasContext }

// SourceNames lists the distinct source names rendered into layer 4,
// the vocabulary valid citations must draw from.
func (l Layers) SourceNames() []string {
	out := make([]string, len(l.sourceNames))
	copy(out, l.sourceNames)
	return out
}

// Render flattens the layers into the final prompt text.
func (l Layers) Render() string {
	return strings.Join(l.sections[:], layerDelimiter)
}

// Request is the input to one assembly.
type Request struct {
	Mode              types.TaskMode
	EditorContent     string
	AdditionalContext string
	Sources           []retrieval.Candidate
}

// Assembler deterministically renders the six-layer generation
// request.
type Assembler struct {
	log *logger.Logger
}

func NewAssembler(baseLog *logger.Logger) *Assembler {
	return &Assembler{log: baseLog.With("service", "PromptAssembler")}
}

func (a *Assembler) Build(req Request) (Layers, error) {
	if !req.Mode.Valid() {
		return Layers{}, fmt.Errorf("invalid task mode %q", req.Mode)
	}
	modeLayer, err := modeTemplate(req.Mode)
	if err != nil {
		return Layers{}, err
	}

	contextLayer, names := a.renderContext(req.Sources)
	userLayer := a.renderUserInput(req)

	return Layers{
		mode:        req.Mode,
		sourceNames: names,
		hasContext:  len(req.Sources) > 0,
		sections: [LayerCount]string{
			invariantRules,
			identityScope,
			modeLayer,
			contextLayer,
			userLayer,
			outputFormat(req.Mode),
		},
	}, nil
}

func (a *Assembler) renderContext(sources []retrieval.Candidate) (string, []string) {
	if len(sources) == 0 {
		return `RETRIEVED SOURCES: None

[No relevant source found in the user's document corpus]
You MUST acknowledge this limitation in your response.`, nil
	}

	var b strings.Builder
	b.WriteString("RETRIEVED SOURCES (ranked by relevance):\n")

	seen := make(map[string]bool, len(sources))
	names := make([]string, 0, len(sources))

	for i, src := range sources {
		name, hit := SanitizeData(src.SourceName)
		if name == "" {
			name = fmt.Sprintf("source-%d", i+1)
		}
		text, textHit := SanitizeData(src.Text)
		hit = append(hit, textHit...)
		if len(hit) > 0 {
			a.log.Warn("scrubbed retrieved content", "source", name, "rules", hit)
		}

		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}

		role := types.RoleUnknown
		if src.Label != nil {
			role = src.Label.RhetoricalRole
		}

		fmt.Fprintf(&b, "\n[Source %d]\n- Source: %s (%s)\n- Type: %s\n- Role: %s\n- Relevance Score: %.2f\n- Content: %q\n",
			i+1, name, locatorOf(src), src.ContentType, role, src.Similarity, text)
	}
	return b.String(), names
}

func locatorOf(src retrieval.Candidate) string {
	switch {
	case src.PageNumber != nil:
		return fmt.Sprintf("page %d", *src.PageNumber)
	case src.Timestamp != nil:
		return fmt.Sprintf("timestamp %s", *src.Timestamp)
	default:
		return "unknown location"
	}
}

func (a *Assembler) renderUserInput(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER REQUEST:\nMode: %s\n", req.Mode)

	editor, hit := SanitizeData(req.EditorContent)
	if editor != "" {
		fmt.Fprintf(&b, "\nCurrent Editor Content:\n\"\"\"\n%s\n\"\"\"\n", editor)
	} else {
		b.WriteString("\nCurrent Editor Content: [Empty - user has not started writing]\n")
	}

	if extra, extraHit := SanitizeData(req.AdditionalContext); extra != "" {
		hit = append(hit, extraHit...)
		fmt.Fprintf(&b, "\nAdditional Context: %s\n", extra)
	}

	if len(hit) > 0 {
		a.log.Warn("scrubbed user input", "rules", hit)
	}
	return b.String()
}
