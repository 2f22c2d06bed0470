package storage

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/render"
	"github.com/san-kum/firesim/internal/sim"
)

func sampleRun(t *testing.T) Run {
	t.Helper()
	g, err := fluid.New(32)
	if err != nil {
		t.Fatal(err)
	}
	g.Inject(0.5, 0.5, 300)
	var snap fluid.Snapshot
	g.Snapshot(&snap)

	cfg := config.DefaultConfig()
	cfg.Grid = 32
	cfg.Seed = 42

	return Run{
		Name:   "test",
		Config: cfg,
		Result: &sim.Result{
			Ticks:   20,
			Elapsed: 2 * time.Second,
			Metrics: map[string]float64{"mass": 1.5},
			Faults:  1,
		},
		Stats: []StatsRow{
			{Tick: 10, Mass: 240, PeakTemperature: 34},
			{Tick: 20, Mass: 200, PeakTemperature: 30, Faults: 1},
		},
		Final: render.DefaultPalette().Render(&snap, nil),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())

	runID, err := st.Save(sampleRun(t))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runID).To(HavePrefix("test_"))

	meta, err := st.Load(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(meta.Name).To(Equal("test"))
	g.Expect(meta.Seed).To(Equal(int64(42)))
	g.Expect(meta.Grid).To(Equal(32))
	g.Expect(meta.Ticks).To(Equal(20))
	g.Expect(meta.TicksPerSecond).To(BeNumerically("~", 10, 1e-9))
	g.Expect(meta.Metrics).To(HaveKeyWithValue("mass", 1.5))
	g.Expect(meta.Faults).To(Equal(1))

	stats, err := st.LoadStats(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stats).To(HaveLen(2))
	g.Expect(stats[0].Mass).To(Equal(240.0))
	g.Expect(stats[1].Faults).To(Equal(1))

	g.Expect(st.FinalFramePath(runID)).To(BeAnExistingFile())
}

func TestStoreSave_SameSecondGetsDistinctIDs(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	run := sampleRun(t)

	first, err := st.Save(run)
	g.Expect(err).NotTo(HaveOccurred())
	second, err := st.Save(run)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second).NotTo(Equal(first))

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(2))
}

func TestStoreSave_WithoutFrameOrStats(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	run := sampleRun(t)
	run.Final = nil
	run.Stats = nil

	runID, err := st.Save(run)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(st.FinalFramePath(runID)).NotTo(BeAnExistingFile())

	stats, err := st.LoadStats(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stats).To(BeEmpty())
}

func TestStoreSave_FailedWriteLeavesNoRun(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	st := New(dir)

	run := sampleRun(t)
	run.Final = image.NewNRGBA(image.Rect(0, 0, 0, 0))
	_, err := st.Save(run)
	g.Expect(err).To(HaveOccurred())

	entries, err := os.ReadDir(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(BeEmpty())

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())
}

func TestStoreSave_RequiresConfig(t *testing.T) {
	g := NewWithT(t)
	_, err := New(t.TempDir()).Save(Run{Name: "x"})
	g.Expect(err).To(HaveOccurred())
}

func TestStoreList(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())

	_, err = st.Save(sampleRun(t))
	g.Expect(err).NotTo(HaveOccurred())

	// stray entries are skipped
	g.Expect(os.MkdirAll(filepath.Join(dir, "broken"), 0755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0644)).To(Succeed())

	runs, err = st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(1))
}

func TestStoreList_MissingDir(t *testing.T) {
	g := NewWithT(t)
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())
}

func TestStoreLoad_Missing(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	_, err := st.Load("nonexistent")
	g.Expect(err).To(HaveOccurred())
	_, err = st.LoadStats("nonexistent")
	g.Expect(err).To(HaveOccurred())
}

func TestExportJSON(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	runID, err := st.Save(sampleRun(t))
	g.Expect(err).NotTo(HaveOccurred())

	path := filepath.Join(t.TempDir(), "run.json")
	g.Expect(st.ExportJSON(runID, path)).To(Succeed())

	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())

	var out ExportData
	g.Expect(json.Unmarshal(data, &out)).To(Succeed())
	g.Expect(out.ID).To(Equal(runID))
	g.Expect(out.Stats).To(HaveLen(2))
}
