package transcript

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ContractVersion is written into every archive.
const ContractVersion = "v1.0"

const schemaName = "archive.schema.json"

//go:embed archive.schema.json
var archiveSchemaJSON string

var (
	archiveSchema = mustCompileSchema(archiveSchemaJSON, schemaName)
	schemaPrinter = message.NewPrinter(language.English)
)

// Archive is the aggregated, versioned transcript of a whole collection.
type Archive struct {
	ContractVersion string             `json:"contractVersion"`
	CreatedAt       time.Time          `json:"createdAt"`
	LastUpdatedAt   time.Time          `json:"lastUpdatedAt"`
	Transcripts     []VolumeTranscript `json:"transcripts"`
}

// NewArchive returns an empty archive stamped with now.
func NewArchive(now time.Time) *Archive {
	now = now.UTC()
	return &Archive{
		ContractVersion: ContractVersion,
		CreatedAt:       now,
		LastUpdatedAt:   now,
		Transcripts:     []VolumeTranscript{},
	}
}

// Append adds a volume. Volumes may only be added once.
func (a *Archive) Append(v VolumeTranscript) error {
	for _, existing := range a.Transcripts {
		if existing.Volume == v.Volume {
			return fmt.Errorf("archive already contains volume %d", v.Volume)
		}
	}
	a.Transcripts = append(a.Transcripts, v)
	sort.SliceStable(a.Transcripts, func(i, j int) bool {
		return a.Transcripts[i].Volume < a.Transcripts[j].Volume
	})
	return nil
}

// Volumes returns the volume numbers present, ascending.
func (a *Archive) Volumes() []int {
	out := make([]int, len(a.Transcripts))
	for i, t := range a.Transcripts {
		out[i] = t.Volume
	}
	return out
}

// Marshal encodes the archive as indented JSON and checks it against the
// archive contract.
func (a *Archive) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode archive: %w", err)
	}
	if err := ValidateArchive(data); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeArchive validates and decodes archive bytes.
func DecodeArchive(data []byte) (*Archive, error) {
	if err := ValidateArchive(data); err != nil {
		return nil, err
	}
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return &a, nil
}

// SchemaError lists every contract violation found in a document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "archive does not match contract: " + strings.Join(e.Problems, "; ")
}

// ValidateArchive checks raw JSON against the embedded archive schema.
func ValidateArchive(data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &SchemaError{Problems: []string{fmt.Sprintf("/: invalid JSON: %v", err)}}
	}
	if err := archiveSchema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return &SchemaError{Problems: []string{err.Error()}}
		}
		var problems []string
		collectSchemaErrors(ve, &problems)
		return &SchemaError{Problems: problems}
	}
	return nil
}

func collectSchemaErrors(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, out)
	}
}

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}
