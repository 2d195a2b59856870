package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

const (
	googleEngineDir = "google_classic"
	// bytes, a little under the 5000 byte request limit
	googleChunkLimit = 4800
	// every clip is resampled to the rate the speaker was opened with
	speakerSampleRate = beep.SampleRate(44100)
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	return speakerErr
}

type GoogleClassicTTSEngine struct {
	client       *texttospeech.Client
	ctx          context.Context
	config       Config
	cacheRootDir string

	mu      sync.Mutex
	current *googlePlayback
}

// googlePlayback is one utterance from synthesis through playback.
type googlePlayback struct {
	cancel context.CancelFunc
	done   func(Outcome)
	once   sync.Once

	// set once playback starts, guarded by the engine mutex
	ctrl  *beep.Ctrl
	files []beep.StreamSeekCloser
}

func (p *googlePlayback) finish(o Outcome) {
	p.once.Do(func() { p.done(o) })
}

func (p *googlePlayback) close() {
	for _, f := range p.files {
		f.Close()
	}
	p.files = nil
}

func newGoogleClassicTTSEngine(config Config) (*GoogleClassicTTSEngine, error) {
	ctx := context.Background()
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir := config.CachePath
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "storybook-tts")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &GoogleClassicTTSEngine{
		client:       client,
		ctx:          ctx,
		config:       config,
		cacheRootDir: cacheDir,
	}, nil
}

func (g *GoogleClassicTTSEngine) Speak(u Utterance, done func(Outcome)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		return fmt.Errorf("already playing")
	}
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}

	ctx, cancel := context.WithCancel(g.ctx)
	pb := &googlePlayback{cancel: cancel, done: done}
	g.current = pb

	go g.play(ctx, pb, u)
	return nil
}

func (g *GoogleClassicTTSEngine) play(ctx context.Context, pb *googlePlayback, u Utterance) {
	paths, err := g.synthesize(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			pb.finish(Cancelled)
			return
		}
		logrus.WithError(err).Warn("Google TTS synthesis failed")
		g.release(pb)
		pb.finish(Failed)
		return
	}

	streamers := make([]beep.Streamer, 0, len(paths))
	files := make([]beep.StreamSeekCloser, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			logrus.WithError(err).WithField("file", path).Warn("Failed to open cached audio")
			continue
		}
		streamer, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			logrus.WithError(err).WithField("file", path).Warn("Failed to decode cached audio")
			continue
		}
		files = append(files, streamer)
		streamers = append(streamers, beep.Resample(4, format.SampleRate, speakerSampleRate, streamer))
	}

	g.mu.Lock()
	if g.current != pb {
		// stopped while synthesizing
		g.mu.Unlock()
		for _, f := range files {
			f.Close()
		}
		pb.finish(Cancelled)
		return
	}
	if len(streamers) == 0 {
		g.current = nil
		g.mu.Unlock()
		pb.finish(Failed)
		return
	}
	pb.files = files
	pb.ctrl = &beep.Ctrl{Streamer: beep.Seq(streamers...)}
	g.mu.Unlock()

	speaker.Play(beep.Seq(pb.ctrl, beep.Callback(func() {
		// runs on the audio thread with the speaker locked
		go func() {
			g.release(pb)
			pb.finish(Finished)
		}()
	})))
}

// release forgets pb if it is still current and closes its files.
func (g *GoogleClassicTTSEngine) release(pb *googlePlayback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == pb {
		g.current = nil
	}
	pb.close()
}

// synthesize returns the cached MP3 chunks for u, generating missing ones.
func (g *GoogleClassicTTSEngine) synthesize(ctx context.Context, u Utterance) ([]string, error) {
	lang := u.Language
	if lang == "" {
		lang = "en-US"
	}
	cacheDir := filepath.Join(g.cacheRootDir, googleEngineDir, lang)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	voice := u.Voice
	if voice == "" && g.config.Voice != "" && g.config.Voice != "default" {
		voice = g.config.Voice
	}
	rate := googleRate(u.Rate)

	contentHash := md5Sum(fmt.Sprintf("%s|%s|%s|%.2f", u.Text, voice, lang, rate))[:12]
	chunks := splitIntoChunks(u.Text, googleChunkLimit)
	paths := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		path := filepath.Join(cacheDir, fmt.Sprintf("%s_%d.mp3", contentHash, i))
		paths = append(paths, path)
		if _, err := os.Stat(path); err == nil {
			continue
		}

		audioCfg := &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		}
		// Chirp voices reject speakingRate and volume gain
		if !strings.Contains(strings.ToLower(voice), "chirp") {
			audioCfg.SpeakingRate = rate
			audioCfg.VolumeGainDb = volumeGainDb(g.config.Volume)
		}

		resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: lang,
				Name:         voice,
			},
			AudioConfig: audioCfg,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", i, err)
		}

		if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
			return nil, fmt.Errorf("failed to write MP3 chunk %d to %s: %w", i, path, err)
		}

		logrus.WithFields(logrus.Fields{
			"chunk": i + 1,
			"of":    len(chunks),
			"file":  path,
		}).Debug("Cached synthesized audio")
	}

	return paths, nil
}

func (g *GoogleClassicTTSEngine) Stop() error {
	g.mu.Lock()
	pb := g.current
	g.current = nil
	g.mu.Unlock()

	if pb == nil {
		return nil
	}

	pb.cancel()
	pb.finish(Cancelled)
	speaker.Clear()

	g.mu.Lock()
	pb.close()
	g.mu.Unlock()
	return nil
}

func (g *GoogleClassicTTSEngine) setPaused(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil || g.current.ctrl == nil {
		return
	}
	speaker.Lock()
	g.current.ctrl.Paused = paused
	speaker.Unlock()
}

func (g *GoogleClassicTTSEngine) Pause() error {
	g.setPaused(true)
	return nil
}

func (g *GoogleClassicTTSEngine) Resume() error {
	g.setPaused(false)
	return nil
}

func (g *GoogleClassicTTSEngine) Voices() ([]Voice, error) {
	resp, err := g.client.ListVoices(g.ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		for _, lang := range v.LanguageCodes {
			voices = append(voices, Voice{
				Name:     v.Name,
				Language: lang,
				Gender:   strings.ToLower(v.SsmlGender.String()),
			})
		}
	}
	return voices, nil
}

func (g *GoogleClassicTTSEngine) Close() error {
	g.Stop()
	return g.client.Close()
}

// GetCacheStats returns cache statistics for the engine
func (g *GoogleClassicTTSEngine) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalFiles int64
	var totalSize int64

	err := filepath.Walk(g.cacheRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // keep walking
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats["cache_directory"] = g.cacheRootDir
	stats["cached_files"] = totalFiles
	stats["total_size_mb"] = float64(totalSize) / (1024 * 1024)
	return stats, nil
}

// ClearCache removes all cached files
func (g *GoogleClassicTTSEngine) ClearCache() error {
	return os.RemoveAll(filepath.Join(g.cacheRootDir, googleEngineDir))
}

// googleRate maps the normalised rate onto Google's 0.25..4.0 speaking rate.
func googleRate(rate float64) float64 {
	r := speedFactor(rate)
	if r < 0.25 {
		return 0.25
	}
	return r
}

// volumeGainDb maps a 0..1 volume onto a -16..0 dB gain.
func volumeGainDb(volume float64) float64 {
	if volume <= 0 {
		return -16
	}
	if volume >= 1 {
		return 0
	}
	return (volume - 1) * 16
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// splitIntoChunks cuts text into pieces of at most limit bytes without
// splitting a rune, preferring to break after whitespace.
func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		end := limit
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if sp := strings.LastIndexAny(text[:end], " \t\n"); sp > 0 {
			end = sp + 1
		}
		if end == 0 {
			_, end = utf8.DecodeRuneInString(text)
		}

		chunks = append(chunks, text[:end])
		text = text[end:]
	}
	return chunks
}
