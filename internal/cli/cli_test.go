package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hunteros-backend/internal/api/v1/templates"
	"hunteros-backend/internal/api/v1/widget_builder"
	"hunteros-backend/internal/api/v1/widgets"
	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/sandbox"
	"hunteros-backend/internal/services"
	"hunteros-backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var alice = models.User{ID: 1, Username: "alice", Role: models.RoleUser}

type fakeStreamer struct {
	deltas []string
	err    error
}

func (f *fakeStreamer) StreamChatCompletion(ctx context.Context, messages []services.ChatMessage, onDelta func(string) error) error {
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return f.err
}

// newTestAPI serves the widget API as alice, without the auth middleware.
func newTestAPI(t *testing.T, streamer services.ChatStreamer) string {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", alice)
		c.Next()
	})
	api := r.Group("/api/v1")
	templates.RegisterRoutes(api)
	widgets.RegisterRoutes(api)
	widget_builder.RegisterRoutes(api, widget_builder.NewHandler(streamer))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--log-level", "ERROR"))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hunteros dev")
}

func TestRender(t *testing.T) {
	path := writeFile(t, "w.html", "<p>hi</p>")

	out, _, err := runCLI(t, "", "render", path)
	require.NoError(t, err)
	assert.Equal(t, sandbox.WrapDocument("<p>hi</p>"), out)

	out, _, err = runCLI(t, "", "render", path, "--headers", "--mode", "same-origin")
	require.NoError(t, err)
	assert.Contains(t, out, "Content-Security-Policy: sandbox allow-scripts allow-same-origin\n")
	assert.True(t, strings.HasSuffix(out, sandbox.WrapDocument("<p>hi</p>")))

	out, _, err = runCLI(t, "<p>x</p>", "render", "-", "--iframe", "--title", "Clock")
	require.NoError(t, err)
	assert.Contains(t, out, `sandbox="allow-scripts"`)
	assert.Contains(t, out, `title="Clock"`)

	out, _, err = runCLI(t, "   \n", "render", "-")
	require.NoError(t, err)
	assert.Equal(t, sandbox.EmptyStateDocument, out)

	_, _, err = runCLI(t, "", "render", path, "--mode", "open")
	assert.Error(t, err)
}

func TestRenderWarnsAboutEscapes(t *testing.T) {
	_, stderr, err := runCLI(t, "<script>window.parent.document.title = 'x'</script>", "render", "-")
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning:")
}

func TestTemplatesCommands(t *testing.T) {
	server := newTestAPI(t, nil)
	path := writeFile(t, "clock.html", "<p>v1</p>")

	out, _, err := runCLI(t, "", "templates", "push", path, "--server", server, "--name", "Clock")
	require.NoError(t, err)
	assert.Contains(t, out, "Created template 1 (Clock) version 1")

	_, _, err = runCLI(t, "", "templates", "push", path, "--server", server)
	assert.ErrorContains(t, err, "--name is required")

	path = writeFile(t, "clock2.html", "<p>v2</p>")
	out, _, err = runCLI(t, "", "templates", "push", path, "--server", server, "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated template 1 (Clock) version 2")

	out, _, err = runCLI(t, "", "templates", "list", "--server", server, "--filter", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Clock")
	assert.Contains(t, out, "Showing 1 of 1 templates")

	out, _, err = runCLI(t, "", "templates", "get", "1", "--code", "--server", server)
	require.NoError(t, err)
	assert.Equal(t, "<p>v2</p>", out)

	out, _, err = runCLI(t, "", "templates", "versions", "1", "--server", server)
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	_, _, err = runCLI(t, "", "templates", "delete", "1", "--server", server)
	require.NoError(t, err)
	_, _, err = runCLI(t, "", "templates", "get", "1", "--server", server)
	assert.ErrorContains(t, err, "not found")

	_, _, err = runCLI(t, "", "templates", "get", "abc", "--server", server)
	assert.ErrorContains(t, err, "invalid id")
}

func TestGenerate(t *testing.T) {
	server := newTestAPI(t, &fakeStreamer{deltas: []string{"```html\n", "<title>Clock</title><p>12:00</p>", "\n```"}})
	output := filepath.Join(t.TempDir(), "out.html")

	out, stderr, err := runCLI(t, "", "generate", "a", "clock", "--server", server, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>12:00</p>")
	assert.Contains(t, stderr, "title: Clock")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "<title>Clock</title><p>12:00</p>", string(written))
}

func TestGenerateQuietWithCurrentCode(t *testing.T) {
	server := newTestAPI(t, &fakeStreamer{deltas: []string{"<p>blue</p>"}})
	current := writeFile(t, "current.html", "<p>red</p>")

	out, stderr, err := runCLI(t, "", "generate", "make it blue", "-q", "-f", current, "-t", "Box", "--server", server)
	require.NoError(t, err)
	assert.Equal(t, "<p>blue</p>\n", out)
	assert.Contains(t, stderr, "title: Box")
}

func TestGenerateBackendError(t *testing.T) {
	server := newTestAPI(t, nil)

	_, _, err := runCLI(t, "", "generate", "a clock", "--server", server)
	assert.ErrorContains(t, err, "widget builder: The widget builder is not configured")
}

func TestWidgetWatchOnce(t *testing.T) {
	server := newTestAPI(t, nil)

	tpl, err := services.CreateTemplate(alice.ID, "Clock", "", "<p>live</p>", false)
	require.NoError(t, err)
	bound, err := services.CreateWidget(context.Background(), alice.ID, services.WidgetInput{Code: "<p>own</p>", TemplateID: &tpl.ID})
	require.NoError(t, err)
	inline, err := services.CreateWidget(context.Background(), alice.ID, services.WidgetInput{Code: "<p>own</p>"})
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "widget", "watch", "1", "--once", "--server", server)
	require.NoError(t, err)
	require.Equal(t, uint(1), bound.ID)
	assert.Contains(t, out, "bound_to_template source=template template=1 (Clock)")
	assert.Contains(t, out, "<p>live</p>")

	out, _, err = runCLI(t, "", "widget", "watch", "2", "--server", server)
	require.NoError(t, err)
	require.Equal(t, uint(2), inline.ID)
	assert.Contains(t, out, "inlined_code source=inline")

	require.NoError(t, services.DeleteTemplate(tpl.ID, alice.ID))
	out, _, err = runCLI(t, "", "widget", "watch", "1", "--once", "--document", "--server", server)
	require.NoError(t, err)
	assert.Contains(t, out, "source=fallback")
	assert.Contains(t, out, "template-missing")
	assert.Contains(t, out, sandbox.WrapDocument("<p>own</p>"))

	_, _, err = runCLI(t, "", "widget", "watch", "99", "--once", "--server", server)
	assert.Error(t, err)
}
