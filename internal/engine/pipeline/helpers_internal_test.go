package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/adapters/fs"
	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/scribe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func analyze(t *testing.T, text string, subs map[string]string) *AnalyzedScript {
	t.Helper()
	in := domain.NewBuildInput(domain.NewInlineSource("build.star", text), subs, false)
	compiled, err := NewCompiler(fs.NewResolver(), fs.NewHasher()).Compile(context.Background(), in, DefaultReferences())
	require.NoError(t, err)
	analyzed, err := NewAnalyzer(quietLogger(t)).Analyze(compiled, subs)
	require.NoError(t, err)
	return analyzed
}
