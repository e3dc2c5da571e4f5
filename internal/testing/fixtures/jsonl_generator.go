package fixtures

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// Record is one event record in the timeline stream format
type Record struct {
	Kind   string      `json:"kind"`
	Entity interface{} `json:"entity,omitempty"`
	Token  interface{} `json:"token,omitempty"`
	TS     *int64      `json:"ts,omitempty"`
	Label  string      `json:"label,omitempty"`
	Text   string      `json:"text,omitempty"`
	Name   string      `json:"name,omitempty"`
}

func ts(v int64) *int64 {
	return &v
}

// Begin returns a begin record
func Begin(entity interface{}, token interface{}, at int64, label string) Record {
	return Record{Kind: "begin", Entity: entity, Token: token, TS: ts(at), Label: label}
}

// End returns an end record without an entity
func End(token interface{}, at int64) Record {
	return Record{Kind: "end", Token: token, TS: ts(at)}
}

// EndOn returns an end record naming its entity
func EndOn(entity interface{}, token interface{}, at int64) Record {
	return Record{Kind: "end", Entity: entity, Token: token, TS: ts(at)}
}

// Instant returns an instant record
func Instant(entity interface{}, at int64, label string) Record {
	return Record{Kind: "instant", Entity: entity, TS: ts(at), Label: label}
}

// Info returns an info record
func Info(entity interface{}, at int64, text string) Record {
	return Record{Kind: "info", Entity: entity, TS: ts(at), Text: text}
}

// Declare returns an entity record
func Declare(entity interface{}, name string) Record {
	return Record{Kind: "entity", Entity: entity, Name: name}
}

// Composite returns the {"type","id"} entity form
func Composite(typ string, id interface{}) map[string]interface{} {
	return map[string]interface{}{"type": typ, "id": id}
}

// Encode renders records as a stream of concatenated JSON values, one per line
func Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := sonic.ConfigDefault.NewEncoder(&buf)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Trace is a generated stream plus the facts a correct interpretation must report
type Trace struct {
	Records     []Record
	Min         int64
	Max         int64
	Intervals   int
	Instants    int
	Annotations int
	Entities    map[string]bool
}

func (t *Trace) observe(at int64) {
	if len(t.Records) == 0 || at < t.Min {
		t.Min = at
	}
	if len(t.Records) == 0 || at > t.Max {
		t.Max = at
	}
}

func (t *Trace) add(r Record, stamps ...int64) {
	for _, s := range stamps {
		t.observe(s)
	}
	t.Records = append(t.Records, r)
}

// TestDataGenerator generates timeline event streams
type TestDataGenerator struct {
	baseDir string
	rng     *rand.Rand
}

// NewTestDataGenerator creates a generator writing below baseDir with a fixed seed
func NewTestDataGenerator(baseDir string, seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// GenerateCompositorFrame returns one repaint cycle of a compositor: an output
// repaint interval, two surface commits and a vblank instant
func (g *TestDataGenerator) GenerateCompositorFrame(start int64) []Record {
	return []Record{
		Declare("output.0", "HDMI-A-1"),
		Begin("output.0", 1, start, "repaint"),
		Begin("surface.3", 2, start+2, "commit"),
		End(2, start+5),
		Begin(Composite("surface", 7), 3, start+4, "commit"),
		EndOn("surface.7", 3, start+9),
		Info("output.0", start+10, "mode 1920x1080@60"),
		End(1, start+16),
		Instant("output.0", start+16, "vblank"),
	}
}

// GenerateRandomTrace returns a well-formed stream of n operations spread over
// the given entity count. Every begin is eventually ended and timestamps are
// not monotonic.
func (g *TestDataGenerator) GenerateRandomTrace(n, entities int) *Trace {
	if entities < 1 {
		entities = 1
	}
	t := &Trace{Entities: make(map[string]bool)}

	type openInterval struct {
		token int
		begin int64
	}
	var pending []openInterval
	token := 0

	entity := func() string {
		e := fmt.Sprintf("%s.%d", []string{"output", "surface", "client"}[g.rng.Intn(3)], g.rng.Intn(entities))
		t.Entities[e] = true
		return e
	}
	stamp := func() int64 {
		return g.rng.Int63n(200_000) - 100_000
	}

	for i := 0; i < n; i++ {
		switch op := g.rng.Intn(10); {
		case op < 4:
			token++
			at := stamp()
			pending = append(pending, openInterval{token: token, begin: at})
			t.add(Begin(entity(), token, at, fmt.Sprintf("phase%d", g.rng.Intn(4))), at)
		case op < 7 && len(pending) > 0:
			k := g.rng.Intn(len(pending))
			p := pending[k]
			pending = append(pending[:k], pending[k+1:]...)
			end := p.begin + g.rng.Int63n(5_000)
			t.add(End(p.token, end), end)
			t.Intervals++
		case op < 9:
			at := stamp()
			t.add(Instant(entity(), at, fmt.Sprintf("tick%d", g.rng.Intn(3))), at)
			t.Instants++
		default:
			at := stamp()
			t.add(Info(entity(), at, "note"), at)
			t.Annotations++
		}
	}

	for _, p := range pending {
		end := p.begin + g.rng.Int63n(5_000)
		t.add(End(p.token, end), end)
		t.Intervals++
	}
	return t
}

// WriteTrace writes records to name below the base directory and returns the path
func (g *TestDataGenerator) WriteTrace(name string, records []Record) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	data, err := Encode(records)
	if err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// CleanupTestData removes all generated test data
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}

// GetBaseDir returns the base directory for test data
func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}
