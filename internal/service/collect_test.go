package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"post_radar/internal/config"
	"post_radar/internal/domain"
	"post_radar/internal/extract"
	"post_radar/internal/service/mocks"
)

type CollectServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	driver    *mocks.MockSearchDriver
	extractor *mocks.MockExtractor
	enricher  *mocks.MockEnricher
	dedup     *mocks.MockDedupStore
	batches   *mocks.MockBatchStore
	publisher *mocks.MockPublisher

	service *CollectService
	cfg     config.CollectConfig
	logger  *slog.Logger
}

func (s *CollectServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.driver = mocks.NewMockSearchDriver(s.ctrl)
	s.extractor = mocks.NewMockExtractor(s.ctrl)
	s.enricher = mocks.NewMockEnricher(s.ctrl)
	s.dedup = mocks.NewMockDedupStore(s.ctrl)
	s.batches = mocks.NewMockBatchStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.CollectConfig{
		Interval:       10 * time.Minute,
		MaxPerTerm:     20,
		WaitTimeout:    time.Minute,
		TargetLanguage: "pt",
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = s.newService([]string{"eleições"}, s.publisher)
}

func (s *CollectServiceTestSuite) newService(terms []string, pub Publisher) *CollectService {
	return NewCollectService(
		s.driver,
		s.extractor,
		s.enricher,
		s.dedup,
		s.batches,
		pub,
		terms,
		s.cfg,
		s.logger,
	)
}

func (s *CollectServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCollectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CollectServiceTestSuite))
}

func resultsPage(cards int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < cards; i++ {
		fmt.Fprintf(&b, `<div class="tweet-card">card %d</div>`, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (s *CollectServiceTestSuite) TestCollect_NewPosts() {
	ctx := context.Background()
	post := &domain.Post{ID: "111", Text: "texto", SearchTerm: "eleições"}

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(post, nil, true)
	s.dedup.EXPECT().Add("111")
	s.batches.EXPECT().WriteBatch([]domain.Post{*post}).Return("collections/collection_x.json", nil)
	s.dedup.EXPECT().Commit([]string{"111"})
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Collect(ctx)

	s.NoError(err)
	s.Equal(1, stats.Candidates)
	s.Equal(1, stats.New)
	s.Equal(0, stats.Skipped)
	s.Equal(0, stats.Errors)
	s.Equal(1, stats.Published)
	s.Equal("collections/collection_x.json", stats.BatchFile)
}

func (s *CollectServiceTestSuite) TestCollect_EmptyCycleWritesNothing() {
	ctx := context.Background()

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(2), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(nil, nil, false).Times(2)

	stats, err := s.service.Collect(ctx)

	s.NoError(err)
	s.Equal(0, stats.New)
	s.Equal(2, stats.Skipped)
	s.Empty(stats.BatchFile)
}

func (s *CollectServiceTestSuite) TestCollect_TermFailureIsIsolated() {
	ctx := context.Background()
	svc := s.newService([]string{"primeiro", "segundo"}, nil)
	post := &domain.Post{ID: "222", Text: "texto"}

	s.driver.EXPECT().Search(ctx, "primeiro", extract.ContainerSelector).Return("", errors.New("results did not load"))
	s.driver.EXPECT().Search(ctx, "segundo", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "segundo").Return(post, nil, true)
	s.dedup.EXPECT().Add("222")
	s.batches.EXPECT().WriteBatch(gomock.Any()).Return("batch.json", nil)
	s.dedup.EXPECT().Commit([]string{"222"})

	stats, err := svc.Collect(ctx)

	s.NoError(err)
	s.Equal(1, stats.Errors)
	s.Equal(1, stats.New)
}

func (s *CollectServiceTestSuite) TestCollect_CapsCandidatesPerTerm() {
	ctx := context.Background()
	s.cfg.MaxPerTerm = 2
	svc := s.newService([]string{"eleições"}, nil)

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(5), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(nil, nil, false).Times(2)

	stats, err := svc.Collect(ctx)

	s.NoError(err)
	s.Equal(2, stats.Candidates)
}

func (s *CollectServiceTestSuite) TestCollect_EnrichesMediaPosts() {
	ctx := context.Background()
	svc := s.newService([]string{"eleições"}, nil)
	post := &domain.Post{ID: "333", Text: "com mídia"}
	ref := &domain.MediaRef{Kind: domain.MediaImage, URL: "/pic/a.jpg", PostID: "333"}

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(post, ref, true)
	s.enricher.EXPECT().Enrich(ctx, ref).Return(&domain.MediaEvidence{Kind: domain.MediaImage, ExtractedText: "placa"})
	s.dedup.EXPECT().Add("333")

	var written []domain.Post
	s.batches.EXPECT().WriteBatch(gomock.Any()).DoAndReturn(func(posts []domain.Post) (string, error) {
		written = posts
		return "batch.json", nil
	})
	s.dedup.EXPECT().Commit([]string{"333"})

	_, err := svc.Collect(ctx)

	s.NoError(err)
	s.Require().Len(written, 1)
	s.True(written[0].HasMedia)
	s.Require().NotNil(written[0].MediaEvidence)
	s.Equal("placa", written[0].MediaEvidence.ExtractedText)
}

func (s *CollectServiceTestSuite) TestCollect_MediaFailureKeepsPost() {
	ctx := context.Background()
	svc := s.newService([]string{"eleições"}, nil)
	post := &domain.Post{ID: "444", Text: "com mídia"}
	ref := &domain.MediaRef{Kind: domain.MediaVideo, PostID: "444"}

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(post, ref, true)
	s.enricher.EXPECT().Enrich(ctx, ref).Return(nil)
	s.dedup.EXPECT().Add("444")

	var written []domain.Post
	s.batches.EXPECT().WriteBatch(gomock.Any()).DoAndReturn(func(posts []domain.Post) (string, error) {
		written = posts
		return "batch.json", nil
	})
	s.dedup.EXPECT().Commit([]string{"444"})

	_, err := svc.Collect(ctx)

	s.NoError(err)
	s.Require().Len(written, 1)
	s.False(written[0].HasMedia)
	s.Nil(written[0].MediaEvidence)
}

func (s *CollectServiceTestSuite) TestCollect_BatchWriteErrorAbortsCommit() {
	ctx := context.Background()
	svc := s.newService([]string{"eleições"}, nil)
	post := &domain.Post{ID: "555", Text: "texto"}

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(post, nil, true)
	s.dedup.EXPECT().Add("555")
	s.batches.EXPECT().WriteBatch(gomock.Any()).Return("", errors.New("disk full"))

	_, err := svc.Collect(ctx)

	s.Error(err)
	s.Contains(err.Error(), "persist batch")
}

func (s *CollectServiceTestSuite) TestCollect_PublisherNil() {
	ctx := context.Background()
	svc := s.newService([]string{"eleições"}, nil)
	post := &domain.Post{ID: "666", Text: "texto"}

	s.driver.EXPECT().Search(ctx, "eleições", extract.ContainerSelector).Return(resultsPage(1), nil)
	s.extractor.EXPECT().Extract(gomock.Any(), "eleições").Return(post, nil, true)
	s.dedup.EXPECT().Add("666")
	s.batches.EXPECT().WriteBatch(gomock.Any()).Return("batch.json", nil)
	s.dedup.EXPECT().Commit([]string{"666"})

	stats, err := svc.Collect(ctx)

	s.NoError(err)
	s.Equal(1, stats.New)
	s.Equal(0, stats.Published)
}

func (s *CollectServiceTestSuite) TestCollect_CancelledBetweenTerms() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.service.Collect(ctx)

	s.ErrorIs(err, context.Canceled)
}
