package chart

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klineChart/internal/domain"
)

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockInstance struct {
	setErr     error
	disposeErr error
	options    []*Option
	disposed   int
}

func (m *mockInstance) SetOption(opt *Option) error {
	m.options = append(m.options, opt)
	return m.setErr
}

func (m *mockInstance) Dispose() error {
	m.disposed++
	return m.disposeErr
}

type mockEngine struct {
	initErr   error
	setErr    error
	instances []*mockInstance
}

func (m *mockEngine) Name() string { return "mock" }

func (m *mockEngine) Init(surface Surface) (Instance, error) {
	if m.initErr != nil {
		return nil, m.initErr
	}
	inst := &mockInstance{setErr: m.setErr}
	m.instances = append(m.instances, inst)
	return inst, nil
}

func newTestPresenter(t *testing.T, engine Engine, onRender func(string, error)) *Presenter {
	t.Helper()
	p, err := NewPresenter(PresenterConfig{
		Engine:   engine,
		Surface:  NewWriterSurface("main", 640, 240, &bytes.Buffer{}),
		Settings: utcSettings(),
		Logger:   &mockLogger{},
		OnRender: onRender,
	})
	require.NoError(t, err)
	return p
}

func TestNewPresenter(t *testing.T) {
	_, err := NewPresenter(PresenterConfig{})
	assert.Error(t, err)

	p := newTestPresenter(t, &mockEngine{}, nil)
	assert.Equal(t, StateIdle, p.State())
}

func TestPresenter_EmptyDatasetStaysIdle(t *testing.T) {
	engine := &mockEngine{}
	calls := 0
	p := newTestPresenter(t, engine, func(string, error) { calls++ })

	require.NoError(t, p.Render(context.Background(), domain.Dataset{}))
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, engine.instances)
	assert.Zero(t, calls)
}

func TestPresenter_RenderAndRerender(t *testing.T) {
	engine := &mockEngine{}
	var results []error
	p := newTestPresenter(t, engine, func(name string, err error) {
		assert.Equal(t, "mock", name)
		results = append(results, err)
	})
	ctx := context.Background()

	require.NoError(t, p.Render(ctx, sampleDataset(t)))
	assert.Equal(t, StateRendered, p.State())
	require.Len(t, engine.instances, 1)
	first := engine.instances[0]
	require.Len(t, first.options, 1)
	assert.Equal(t, []string{"3-7", "3-8"}, first.options[0].XAxis.Data)

	require.NoError(t, p.Render(ctx, sampleDataset(t)))
	assert.Equal(t, StateRendered, p.State())
	require.Len(t, engine.instances, 2)
	assert.Equal(t, 1, first.disposed, "previous instance must be disposed before the next render")
	assert.Zero(t, engine.instances[1].disposed)
	assert.Equal(t, []error{nil, nil}, results)

	// Empty data after a render keeps the live chart.
	require.NoError(t, p.Render(ctx, domain.Dataset{}))
	assert.Equal(t, StateRendered, p.State())
	assert.Len(t, engine.instances, 2)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, engine.instances[1].disposed)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, engine.instances[1].disposed)
}

func TestPresenter_SetOptionFailureDisposesInstance(t *testing.T) {
	setErr := errors.New("boom")
	engine := &mockEngine{setErr: setErr}
	var got error
	p := newTestPresenter(t, engine, func(_ string, err error) { got = err })

	err := p.Render(context.Background(), sampleDataset(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, setErr)
	assert.ErrorIs(t, got, setErr)
	assert.Equal(t, StateIdle, p.State())
	require.Len(t, engine.instances, 1)
	assert.Equal(t, 1, engine.instances[0].disposed)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, engine.instances[0].disposed)
}

func TestPresenter_FailedRerenderLeavesIdle(t *testing.T) {
	engine := &mockEngine{}
	p := newTestPresenter(t, engine, nil)
	ctx := context.Background()

	require.NoError(t, p.Render(ctx, sampleDataset(t)))
	engine.initErr = errors.New("no surface")

	assert.Error(t, p.Render(ctx, sampleDataset(t)))
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, 1, engine.instances[0].disposed)
}

func TestPresenter_DisposeErrorJoined(t *testing.T) {
	setErr := errors.New("set failed")
	disposeErr := errors.New("dispose failed")
	engine := &disposeFailingEngine{mockEngine{setErr: setErr}, disposeErr}
	p := newTestPresenter(t, engine, nil)

	err := p.Render(context.Background(), sampleDataset(t))
	assert.ErrorIs(t, err, setErr)
	assert.ErrorIs(t, err, disposeErr)
}

type disposeFailingEngine struct {
	mockEngine
	disposeErr error
}

func (e *disposeFailingEngine) Init(surface Surface) (Instance, error) {
	inst, err := e.mockEngine.Init(surface)
	if err != nil {
		return nil, err
	}
	inst.(*mockInstance).disposeErr = e.disposeErr
	return inst, nil
}

func TestPresenter_PNGEngine(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPresenter(PresenterConfig{
		Engine:   NewPNGEngine(),
		Surface:  NewWriterSurface("main", 640, 240, &buf),
		Settings: utcSettings(),
		Logger:   &mockLogger{},
	})
	require.NoError(t, err)

	require.NoError(t, p.Render(context.Background(), sampleDataset(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	require.NoError(t, p.Close())
}
