// Command bankpack assembles a soundbank manifest from a directory of
// audio files. Each supported file becomes one event; durations are
// probed so the manifest carries playback lengths without decoding at
// load time.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/flac"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rosshoyt/audioengine/beepsys"
)

var (
	cfgFile string
	outPath string

	rootCmd = &cobra.Command{
		Use:   "bankpack [flags] DIR",
		Short: "Assemble a soundbank manifest from a directory of audio files",
		Long: `bankpack scans DIR for .wav, .mp3, .ogg and .flac files and writes a
bank manifest listing one event per file, with probed durations.
Defaults for volume, pitch and the event name prefix come from flags
or a config file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "manifest output path (default DIR/<dir>.bank.json)")
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file with event defaults")
	rootCmd.Flags().Float64("volume", 1.0, "default event volume")
	rootCmd.Flags().Float64("pitch", 1.0, "default event pitch ratio")
	rootCmd.Flags().String("prefix", "event:/", "event name prefix")
	rootCmd.Flags().Bool("loop", false, "mark all events as looping")

	viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	viper.BindPFlag("pitch", rootCmd.Flags().Lookup("pitch"))
	viper.BindPFlag("prefix", rootCmd.Flags().Lookup("prefix"))
	viper.BindPFlag("loop", rootCmd.Flags().Lookup("loop"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	dir := args[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	manifest := beepsys.Manifest{Name: filepath.Base(dir)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".wav", ".mp3", ".ogg", ".oga", ".flac":
		default:
			continue
		}
		lengthMS, err := probeLength(filepath.Join(dir, name), ext)
		if err != nil {
			log.Warn("skipping file", "file", name, "err", err)
			continue
		}
		event := beepsys.EventDef{
			Name:     viper.GetString("prefix") + strings.TrimSuffix(name, filepath.Ext(name)),
			File:     name,
			Volume:   viper.GetFloat64("volume"),
			Pitch:    viper.GetFloat64("pitch"),
			Loop:     viper.GetBool("loop"),
			LengthMS: lengthMS,
		}
		manifest.Events = append(manifest.Events, event)
		log.Info("packed event", "event", event.Name, "lengthMs", lengthMS)
	}
	if len(manifest.Events) == 0 {
		return fmt.Errorf("no supported audio files in %s", dir)
	}
	sort.Slice(manifest.Events, func(i, j int) bool {
		return manifest.Events[i].Name < manifest.Events[j].Name
	})

	out := outPath
	if out == "" {
		out = filepath.Join(dir, filepath.Base(dir)+".bank.json")
	}
	raw, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		return err
	}
	log.Info("wrote manifest", "path", out, "events", len(manifest.Events))
	return nil
}

// probeLength reads just enough of the file to report its duration in
// milliseconds.
func probeLength(path, ext string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch ext {
	case ".wav":
		d := wav.NewDecoder(f)
		dur, err := d.Duration()
		if err != nil {
			return 0, err
		}
		return dur.Milliseconds(), nil

	case ".mp3":
		d, err := mp3.NewDecoder(f)
		if err != nil {
			return 0, err
		}
		// Length is decoded bytes: 16-bit stereo, 4 bytes per frame.
		frames := d.Length() / 4
		return frames * 1000 / int64(d.SampleRate()), nil

	case ".ogg", ".oga":
		r, err := oggvorbis.NewReader(f)
		if err != nil {
			return 0, err
		}
		return r.Length() * 1000 / int64(r.SampleRate()), nil

	case ".flac":
		s, format, err := flac.Decode(f)
		if err != nil {
			return 0, err
		}
		defer s.Close()
		return format.SampleRate.D(s.Len()).Milliseconds(), nil
	}
	return 0, fmt.Errorf("unsupported extension %s", ext)
}
