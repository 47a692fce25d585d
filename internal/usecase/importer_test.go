package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/repository/memory"
)

type stubExtractor struct {
	record *domain.VideoRecord
	err    error
}

func (s *stubExtractor) ExtractByURL(ctx context.Context, videoURL string) (*domain.VideoRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	clone := *s.record
	clone.SourceURL = videoURL
	return &clone, nil
}

type stubTransferrer struct {
	url   string
	err   error
	calls int
}

func (s *stubTransferrer) Transfer(ctx context.Context, record *domain.VideoRecord) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type importerFixture struct {
	importer *Importer
	accounts *memory.CreatorAccountRepository
	imports  *memory.ImportJobRepository
	users    *memory.AppUserRepository
	posts    *memory.PostRepository
}

func newImporterFixture(extractor Extractor, transferrer Transferrer) *importerFixture {
	f := &importerFixture{
		accounts: memory.NewCreatorAccountRepository(),
		imports:  memory.NewImportJobRepository(),
		users:    memory.NewAppUserRepository(),
		posts:    memory.NewPostRepository(),
	}
	f.importer = NewImporter(extractor, transferrer, f.accounts, f.imports, f.users, f.posts)
	return f
}

func sampleRecord() *domain.VideoRecord {
	return &domain.VideoRecord{
		ExternalID: "7312345678901234567",
		MediaURL:   "https://v16.tiktokcdn.com/play/7312345678901234567",
		Caption:    "Morning routine that changed my life #morning #productivity",
		Creator: domain.Creator{
			ExternalUserID: "6800000000000000001",
			Handle:         "morningperson",
			DisplayName:    "Morning Person",
			AvatarURL:      "https://p16-sign.tiktokcdn.com/avatar.jpeg",
			Verified:       true,
		},
		Engagement:   domain.Engagement{Likes: 5400, Views: 123456},
		CreatorStats: domain.CreatorStats{Followers: 98000, Videos: 87},
	}
}

func TestImportFromURLHappyPath(t *testing.T) {
	extractor := &stubExtractor{record: sampleRecord()}
	transferrer := &stubTransferrer{url: "https://res.cloudinary.com/demo/tiktok-import/tiktok_7312345678901234567.mp4"}
	f := newImporterFixture(extractor, transferrer)

	outcome, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.True(t, outcome.AccountCreated)
	assert.True(t, outcome.PostCreated)
	assert.False(t, outcome.Duplicate)
	require.NotNil(t, outcome.User)
	require.NotNil(t, outcome.Post)
	assert.Equal(t, "morningperson", outcome.User.Username)
	assert.Equal(t, transferrer.url, outcome.Post.MediaURL)

	// Account mirrored with profile and counters
	account, err := f.accounts.GetByHandle("morningperson")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "Morning Person", account.DisplayName)
	assert.Equal(t, int64(98000), account.FollowerCount)
	assert.Equal(t, outcome.User.ID, account.AppUserID)

	// Ledger records the completed job with the post id
	job, err := f.imports.GetByExternalVideoID("7312345678901234567")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.ImportStatusCompleted, job.Status)
	assert.Equal(t, outcome.Post.ID, job.PostID)

	// Post carries caption-derived fields and provenance category
	post, err := f.posts.GetByID(outcome.Post.ID)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, domain.CategoryImport, post.Category)
	assert.Equal(t, domain.VisibilityPublic, post.Visibility)
	assert.Equal(t, []string{"morning", "productivity"}, post.Hashtags)
}

func TestImportFromURLDuplicateIsNoOp(t *testing.T) {
	extractor := &stubExtractor{record: sampleRecord()}
	transferrer := &stubTransferrer{url: "https://res.cloudinary.com/demo/video.mp4"}
	f := newImporterFixture(extractor, transferrer)

	_, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	outcome, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.True(t, outcome.Duplicate)
	assert.Equal(t, 1, transferrer.calls, "duplicate import must not re-download media")
	assert.Equal(t, 1, f.posts.Count())
	assert.Equal(t, 1, f.users.Count())
}

func TestImportFromURLExtractionFailure(t *testing.T) {
	extractor := &stubExtractor{err: fmt.Errorf("%w: no state blob", domain.ErrPageData)}
	f := newImporterFixture(extractor, &stubTransferrer{})

	outcome, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@x/video/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPageData)
	assert.False(t, outcome.Success)
	assert.Equal(t, 0, f.imports.Count())
	assert.Equal(t, 0, f.accounts.Count())
}

func TestImportFromURLIncompleteRecord(t *testing.T) {
	record := sampleRecord()
	record.Creator.Handle = ""
	f := newImporterFixture(&stubExtractor{record: record}, &stubTransferrer{url: "x"})

	_, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@x/video/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, 0, f.accounts.Count())
}

func TestImportFromURLTransferFailureMarksJobFailed(t *testing.T) {
	extractor := &stubExtractor{record: sampleRecord()}
	transferrer := &stubTransferrer{err: fmt.Errorf("%w: status 403", domain.ErrDownload)}
	f := newImporterFixture(extractor, transferrer)

	outcome, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownload)
	assert.False(t, outcome.Success)

	job, err := f.imports.GetByExternalVideoID("7312345678901234567")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.ImportStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "media download failed")

	// No user or post is created for a failed transfer
	assert.Equal(t, 0, f.users.Count())
	assert.Equal(t, 0, f.posts.Count())
}

type failingCompleteRepo struct {
	*memory.ImportJobRepository
}

func (r *failingCompleteRepo) MarkCompleted(id, postID string) error {
	return errors.New("disk full")
}

func TestImportFromURLReportsLedgerUpdateFailure(t *testing.T) {
	f := newImporterFixture(&stubExtractor{record: sampleRecord()}, &stubTransferrer{url: "u"})
	f.importer.imports = &failingCompleteRepo{f.imports}

	outcome, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	assert.True(t, outcome.Success, "the post exists, so the import succeeded")
	assert.Contains(t, outcome.Message, "could not be marked completed")

	job, err := f.imports.GetByExternalVideoID("7312345678901234567")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.ImportStatusProcessing, job.Status)
}

func TestImportFromURLReusesLinkedUser(t *testing.T) {
	first := sampleRecord()
	second := sampleRecord()
	second.ExternalID = "7312345678901234568"

	transferrer := &stubTransferrer{url: "https://res.cloudinary.com/demo/video.mp4"}
	f := newImporterFixture(&stubExtractor{record: first}, transferrer)

	outcome1, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	f.importer.extractor = &stubExtractor{record: second}
	outcome2, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234568")
	require.NoError(t, err)

	assert.False(t, outcome2.AccountCreated)
	assert.Equal(t, outcome1.User.ID, outcome2.User.ID)
	assert.Equal(t, 1, f.users.Count())
	assert.Equal(t, 2, f.posts.Count())
}

func TestImportFromURLRefreshesAccountCounters(t *testing.T) {
	stale := sampleRecord()
	f := newImporterFixture(&stubExtractor{record: stale}, &stubTransferrer{url: "u"})

	_, err := f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
	require.NoError(t, err)

	fresh := sampleRecord()
	fresh.ExternalID = "7312345678901234568"
	fresh.Creator.DisplayName = "Morning Person Official"
	fresh.CreatorStats.Followers = 120000
	fresh.CreatorStats.Videos = 0 // sparse scrape must not zero the stored value

	f.importer.extractor = &stubExtractor{record: fresh}
	_, err = f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234568")
	require.NoError(t, err)

	account, err := f.accounts.GetByHandle("morningperson")
	require.NoError(t, err)
	assert.Equal(t, "Morning Person Official", account.DisplayName)
	assert.Equal(t, int64(120000), account.FollowerCount)
	assert.Equal(t, int64(87), account.VideoCount)
}

func TestImportFromURLConcurrentDuplicates(t *testing.T) {
	extractor := &stubExtractor{record: sampleRecord()}
	f := newImporterFixture(extractor, &stubTransferrer{url: "u"})

	const workers = 8
	var wg sync.WaitGroup
	outcomes := make([]*domain.ImportOutcome, workers)
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			outcomes[idx], errs[idx] = f.importer.ImportFromURL(context.Background(), "https://www.tiktok.com/@morningperson/video/7312345678901234567")
		}(w)
	}
	wg.Wait()

	imported := 0
	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		if outcomes[w].Success {
			imported++
		} else {
			assert.True(t, outcomes[w].Duplicate)
		}
	}

	assert.Equal(t, 1, imported, "exactly one concurrent import must win")
	assert.Equal(t, 1, f.posts.Count())
	assert.Equal(t, 1, f.imports.Count())
}

func TestAvailableUsernameCollisions(t *testing.T) {
	f := newImporterFixture(&stubExtractor{}, &stubTransferrer{})

	require.NoError(t, f.users.Create(&domain.AppUser{Username: "alice", Email: "a@x", PasswordHash: "h"}))
	require.NoError(t, f.users.Create(&domain.AppUser{Username: "alice_1", Email: "b@x", PasswordHash: "h"}))

	name, err := f.importer.availableUsername("Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice_2", name)
}

func TestAvailableUsernameEmptyHandle(t *testing.T) {
	f := newImporterFixture(&stubExtractor{}, &stubTransferrer{})

	name, err := f.importer.availableUsername("@@@")
	require.NoError(t, err)
	assert.True(t, len(name) > len("tiktok_"))
	assert.Contains(t, name, "tiktok_")
}

func TestVideoTitle(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    string
	}{
		{name: "empty caption falls back", caption: "", want: "Video by @morningperson"},
		{name: "short caption falls back", caption: "Hi there!", want: "Video by @morningperson"},
		{name: "exactly ten chars falls back", caption: "1234567890", want: "Video by @morningperson"},
		{name: "single line used whole", caption: "A caption of usable length", want: "A caption of usable length"},
		{name: "multi-line caption marks the cut", caption: "First line here\nsecond line", want: "First line here..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, videoTitle(tt.caption, "morningperson"))
		})
	}
}

func TestVideoTitleTruncatesLongLine(t *testing.T) {
	caption := "This caption is deliberately much longer than sixty characters so it gets cut"
	got := videoTitle(caption, "morningperson")

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 63, len(got))
	assert.True(t, strings.HasPrefix(caption, strings.TrimSuffix(got, "...")))
}

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t, []string{"world", "Test_1"}, extractHashtags("Hello #world and #Test_1 end"))
	assert.Nil(t, extractHashtags("no tags here"))
	assert.Nil(t, extractHashtags(""))
	assert.Equal(t, []string{"a", "b"}, extractHashtags("#a#b"))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alice", sanitizeUsername("Alice"))
	assert.Equal(t, "user.name_1", sanitizeUsername("User.Name_1"))
	assert.Equal(t, "abc", sanitizeUsername(".abc."))
	assert.Equal(t, "", sanitizeUsername("@@@"))
}

func TestListRecentImports(t *testing.T) {
	f := newImporterFixture(&stubExtractor{record: sampleRecord()}, &stubTransferrer{url: "u"})

	for n := 0; n < 3; n++ {
		record := sampleRecord()
		record.ExternalID = fmt.Sprintf("900000000000000000%d", n)
		f.importer.extractor = &stubExtractor{record: record}
		_, err := f.importer.ImportFromURL(context.Background(), fmt.Sprintf("https://www.tiktok.com/@morningperson/video/%s", record.ExternalID))
		require.NoError(t, err)
	}

	jobs, err := f.importer.ListRecentImports(2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "9000000000000000002", jobs[0].ExternalVideoID)
	assert.Equal(t, "9000000000000000001", jobs[1].ExternalVideoID)
}

func TestFailedOutcomeCarriesError(t *testing.T) {
	outcome := failedOutcome("media transfer failed", errors.New("boom"))
	assert.False(t, outcome.Success)
	assert.Equal(t, "boom", outcome.Error)
}
