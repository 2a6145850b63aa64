package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/fileutils"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/httpx"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/media"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/redditapi"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/render"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/voice"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.PrintRenderSchema {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(render.RequestSchema()); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	sec, err := loadSecrets(cfg, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger := newLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, sec, logger)
	stop()
	os.Exit(code)
}

// run produces one thread and returns the process exit code.
func run(ctx context.Context, cfg Config, sec secrets, logger log.Logger) int {
	helper := log.NewHelper(log.With(logger, "module", "reel-o-bot"))
	runID := uuid.NewString()
	workDir := filepath.Join(cfg.WorkDir, runID)
	framesDir := filepath.Join(workDir, "frames")
	audioDir := filepath.Join(workDir, "audio")
	clipsDir := filepath.Join(workDir, "clips")
	for _, d := range []string{cfg.OutDir, framesDir, audioDir, clipsDir} {
		if err := fileutils.EnsureDir(d); err != nil {
			helper.Errorw("msg", "mkdir failed", "dir", d, "err", err)
			return 2
		}
	}

	filter, err := buildFilter(cfg.FilterFile)
	if err != nil {
		helper.Errorw("msg", "filter rules", "err", err)
		return 2
	}

	hc := httpx.NewClient(cfg.UserAgent, 0)

	keeper := redditapi.NewCredentialKeeper(
		redditapi.NewTokenFetcher(sec.RedditClientID, sec.RedditClientSecret, ""),
		cfg.RefreshInterval,
		logger,
	)
	keeper.HTTPClient = hc
	if err := keeper.Start(ctx); err != nil {
		helper.Errorw("msg", "reddit auth failed", "err", err)
		return 1
	}
	helper.Infow("msg", "auth completed", "run", runID)

	synth, err := buildVoice(cfg, sec, audioDir, hc)
	if err != nil {
		helper.Errorw("msg", "voice setup failed", "err", err)
		return 2
	}

	ff := &media.FFmpeg{
		Bin:     cfg.FFmpeg,
		Runner:  media.NewExecRunner(logger),
		ClipDir: clipsDir,
		OutDir:  cfg.OutDir,
	}
	obs := progressObserver{log: log.NewHelper(log.With(logger, "module", "progress"))}
	producer := reel.NewProducer(reel.ProducerConfig{
		Content: &redditapi.ThreadSource{
			Client: &redditapi.Client{HTTP: hc},
			Keeper: keeper,
		},
		Pipeline: &reel.SegmentPipeline{
			Renderer:    &render.HTTPRenderer{HTTP: hc, URL: cfg.RenderURL, Dir: framesDir},
			Synthesizer: synth,
			Media:       ff,
			TaskTimeout: cfg.SegmentTimeout,
		},
		Assembler: &reel.Assembler{
			Media:       ff,
			MaxInFlight: cfg.MaxInFlight,
			Observer:    obs,
		},
		Filter:      filter,
		Observer:    obs,
		MaxComments: cfg.MaxComments,
	}, logger)

	helper.Infow("msg", "fetching thread", "thread", cfg.ThreadID)
	rr, runErr := producer.ProduceThread(ctx, strings.TrimSpace(cfg.ThreadID))

	reportPath := filepath.Join(cfg.OutDir, "report.json")
	if err := fileutils.WriteJSONFileAtomic(reportPath, rr, true); err != nil {
		helper.Errorw("msg", "write report failed", "path", reportPath, "err", err)
	}

	if runErr != nil {
		if errors.Is(runErr, redditapi.ErrCredentialExpired) {
			helper.Errorw("msg", "reddit credential rejected", "err", runErr)
		} else {
			helper.Errorw("msg", "run failed", "err", runErr)
		}
		return 1
	}
	helper.Infow("msg", "finished", "items", len(rr.Items), "failed", rr.Failed(), "report", reportPath)
	return 0
}

type secrets struct {
	RedditClientID     string
	RedditClientSecret string
	OpenAIKey          string
	SpeechToken        string
}

func loadSecrets(cfg Config, getenv func(string) string) (secrets, error) {
	s := secrets{
		RedditClientID:     getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: getenv("REDDIT_CLIENT_SECRET"),
		OpenAIKey:          cfg.APIKey,
		SpeechToken:        getenv("SPEECH_API_TOKEN"),
	}
	if s.OpenAIKey == "" {
		s.OpenAIKey = getenv("OPENAI_API_KEY")
	}
	if s.RedditClientID == "" || s.RedditClientSecret == "" {
		return secrets{}, errors.New("missing REDDIT_CLIENT_ID or REDDIT_CLIENT_SECRET")
	}
	if cfg.Voice == "openai" && s.OpenAIKey == "" {
		return secrets{}, errors.New("missing OPENAI_API_KEY (or pass -api-key)")
	}
	return s, nil
}

func newLogger(verbose bool) log.Logger {
	level := log.LevelInfo
	if verbose {
		level = log.LevelDebug
	}
	logger := log.With(log.NewStdLogger(os.Stderr), "ts", log.DefaultTimestamp)
	return log.NewFilter(logger, log.FilterLevel(level))
}

func buildFilter(path string) (*reel.ContentFilter, error) {
	rules := append([]reel.FilterRule(nil), reel.DefaultFilterRules...)
	if path != "" {
		extra, err := reel.LoadFilterRules(path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}
	return reel.NewContentFilter(rules)
}

// buildVoice registers every backend that has what it needs; -voice picks the default.
func buildVoice(cfg Config, s secrets, audioDir string, hc *http.Client) (*voice.Mux, error) {
	var backends []voice.Backend
	if s.OpenAIKey != "" {
		client := openai.NewClient(option.WithAPIKey(s.OpenAIKey), option.WithMaxRetries(0))
		backends = append(backends, voice.NewOpenAI(&client, cfg.VoiceModel, cfg.VoiceName, cfg.VoiceSpeed))
	}
	if cfg.SpeechURL != "" {
		backends = append(backends, &voice.HTTPSpeech{HTTP: hc, URL: cfg.SpeechURL, Token: s.SpeechToken})
	}
	return voice.NewMux(audioDir, cfg.Voice, backends...)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for final videos and report.json")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Directory for per-run frames, audio and clips")
	fs.StringVar(&cfg.Voice, "voice", cfg.Voice, "Default voice backend: openai or http")
	fs.StringVar(&cfg.VoiceModel, "voice-model", cfg.VoiceModel, "OpenAI speech model")
	fs.StringVar(&cfg.VoiceName, "voice-name", cfg.VoiceName, "OpenAI voice name")
	fs.Float64Var(&cfg.VoiceSpeed, "voice-speed", cfg.VoiceSpeed, "Speech speed (0 = backend default)")
	fs.StringVar(&cfg.SpeechURL, "speech-url", cfg.SpeechURL, "HTTP speech endpoint (uses SPEECH_API_TOKEN)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.RenderURL, "render-url", cfg.RenderURL, "Screenshot service endpoint")
	fs.StringVar(&cfg.FFmpeg, "ffmpeg", cfg.FFmpeg, "ffmpeg binary")
	fs.IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "Max concurrent segments per item (0 = all at once)")
	fs.DurationVar(&cfg.SegmentTimeout, "segment-timeout", cfg.SegmentTimeout, "Timeout for each render and synthesis call (0 = none)")
	fs.IntVar(&cfg.MaxComments, "max-comments", cfg.MaxComments, "Number of comments to render after the question")
	fs.StringVar(&cfg.FilterFile, "filter-file", cfg.FilterFile, "JSON file with extra [{pattern, replacement}] filter rules")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", cfg.RefreshInterval, "Reddit credential refresh interval")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent for outgoing requests (default: built-in)")
	fs.BoolVar(&cfg.PrintRenderSchema, "print-render-schema", false, "Print the JSON schema of render requests and exit")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log per-segment progress")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("expected one thread id, got %d arguments", fs.NArg())
	}
	cfg.ThreadID = strings.TrimSpace(fs.Arg(0))
	cfg.Voice = strings.ToLower(strings.TrimSpace(cfg.Voice))
	return cfg, nil
}
