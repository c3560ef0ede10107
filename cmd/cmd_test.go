package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/topicmap/internal/dataservice/dataservicetest"
	"github.com/olehluchkiv/topicmap/internal/render"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newFakeService(t *testing.T) *dataservicetest.Server {
	t.Helper()
	srv := dataservicetest.NewServer(
		dataservicetest.Topic{Name: "Climate", Items: []dataservicetest.Item{
			{ID: "a", Title: "Ann: first light", Category: "Science"},
			{ID: "b", Title: "Bo: second wind", Category: "Nature"},
			{ID: "c", Title: "third", Category: "Science"},
		}},
		dataservicetest.Topic{Name: "Energy", Items: []dataservicetest.Item{
			{ID: "d", Title: "Dee: solar", Category: "Tech"},
		}},
	)
	t.Cleanup(srv.Close)
	return srv
}

// run executes the root command with an isolated config directory.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--log-file", "", "--log-level", "error"}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestTopicsCmd(t *testing.T) {
	srv := newFakeService(t)

	out, _, err := run(t, "--endpoint", srv.URL, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "topicmap · topics")
	assert.Contains(t, out, "  1  Climate")
	assert.Contains(t, out, "  2  Energy")
	assert.Contains(t, out, "2 topics")
}

func TestTopicsCmd_ServiceDown(t *testing.T) {
	srv := newFakeService(t)
	url := srv.URL
	srv.Close()

	_, _, err := run(t, "--endpoint", url, "topics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list topics")
}

func TestLayoutCmd_JSON(t *testing.T) {
	srv := newFakeService(t)

	out, _, err := run(t, "--endpoint", srv.URL, "layout", "Climate", "Energy")
	require.NoError(t, err)

	var doc render.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []string{"Climate", "Energy"}, doc.Topics)
	require.Len(t, doc.Nodes, 5)

	central := doc.Nodes[0]
	assert.Equal(t, "central", central.Kind)
	assert.Equal(t, "Climate", central.Tooltip)
	assert.True(t, strings.HasPrefix(central.Image, "data:image/png;base64,"))

	first := doc.Nodes[1]
	assert.Equal(t, "a", first.SourceID)
	assert.Equal(t, "Ann", first.Author)
	assert.Equal(t, "First light", first.Title)
	assert.Equal(t, "First light (Science)", first.Tooltip)
	assert.Equal(t, srv.URL+"/images/a", first.Image)

	assert.Equal(t, "d", doc.Nodes[4].SourceID)
	assert.Equal(t, "Energy", doc.Nodes[4].Topic)
}

func TestLayoutCmd_YAMLToFile(t *testing.T) {
	srv := newFakeService(t)
	path := filepath.Join(t.TempDir(), "out", "layout.yaml")

	_, stderr, err := run(t, "--endpoint", srv.URL, "layout", "Energy", "--format", "yaml", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote layout of 2 nodes to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sourceId: d")
	assert.Contains(t, string(data), "category: Tech")
}

func TestLayoutCmd_UnknownFormat(t *testing.T) {
	srv := newFakeService(t)
	_, _, err := run(t, "--endpoint", srv.URL, "layout", "Climate", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRenderCmd(t *testing.T) {
	srv := newFakeService(t)
	path := filepath.Join(t.TempDir(), "map.svg")

	_, stderr, err := run(t, "--endpoint", srv.URL, "render", "Climate", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote map with 3 items to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, ">Climate</text>")
	assert.Contains(t, svg, srv.URL+"/images/b")
	// one clip circle and one drawn circle per node
	assert.Equal(t, 8, strings.Count(svg, "<circle"))
	assert.NotContains(t, svg, "/views/")
	assert.NotContains(t, svg, "<a ")
}

func TestRenderCmd_Stdout(t *testing.T) {
	srv := newFakeService(t)
	out, _, err := run(t, "--endpoint", srv.URL, "render", "Energy")
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Solar (Tech)")
}

func TestRenderCmd_RequiresTopic(t *testing.T) {
	_, _, err := run(t, "render")
	require.Error(t, err)

	_, _, err = run(t, "render", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no topics given")
}

func TestInvalidConfiguration(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "topics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, _, err = run(t, "--endpoint", "not a url", "topics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigFile(t *testing.T) {
	srv := newFakeService(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[service]
endpoint = "` + srv.URL + `"

[layout]
central_radius = 60.0
satellite_radius = 30.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, _, err := run(t, "--config", path, "layout", "Climate")
	require.NoError(t, err)

	var doc render.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Nodes, 4)
	assert.Equal(t, 60.0, doc.Nodes[0].Radius)
	assert.Equal(t, 30.0, doc.Nodes[1].Radius)
}

func TestConfigFile_Missing(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "topics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "topicmap "+version+"\n", out)
}
