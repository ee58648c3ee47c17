// Command audiodemo is an interactive exerciser for the audio engine.
// It loads the sound files given on the command line and maps keys to
// engine operations so playback, looping, fades, spatialization and
// mute can be tried by ear.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/rosshoyt/audioengine/audio"
	"github.com/rosshoyt/audioengine/beepsys"
	"github.com/rosshoyt/audioengine/service"
)

const fadeSamples = 22050

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s SOUND [SOUND...]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	if err := runDemo(os.Args[1:]); err != nil {
		log.Fatal("demo failed", "err", err)
	}
}

func runDemo(paths []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

	sys := beepsys.New(beepsys.WithLogger(logger))
	svc := audio.NewService(sys)
	svc.SetLogger(logger)

	runner := service.NewRunner()
	if err := runner.Register(svc); err != nil {
		return err
	}
	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Stop()

	engine := svc.Engine()
	if engine == nil {
		return fmt.Errorf("audio service is disabled")
	}

	sounds := make([]audio.SoundInfo, 0, len(paths))
	for _, p := range paths {
		info := audio.NewSoundInfo(p)
		if err := engine.LoadSound(info); err != nil {
			return err
		}
		sounds = append(sounds, info)
	}

	// The first sound doubles as the loop demo, spatialized so the
	// listener keys have something to act on.
	loop := sounds[0]
	loop.ID = "demo-loop"
	loop.Loop = true
	loop.Is3D = true
	if err := engine.LoadSound(loop); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var (
		loopPos    = audio.Vector{X: 2, Y: 0, Z: 0}
		listenerZ  float64
		listenerX  float64
		loopVolume = 1.0
		status     = "ready"
	)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := engine.Update(); err != nil {
				status = err.Error()
			}
			draw(screen, sounds, engine, status, listenerX, listenerZ)

		case ev := <-events:
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			switch {
			case key.Key() == tcell.KeyEscape || key.Rune() == 'q':
				return nil

			case key.Rune() >= '1' && key.Rune() <= '9':
				i := int(key.Rune() - '1')
				if i < len(sounds) {
					if err := engine.PlaySound(sounds[i]); err != nil {
						status = err.Error()
					} else {
						status = "played " + string(sounds[i].Key())
					}
				}

			case key.Rune() == 'p':
				loop.Position = loopPos
				loop.Volume = loopVolume
				if err := engine.PlaySound(loop); err != nil {
					status = err.Error()
				} else {
					status = "loop started"
				}

			case key.Rune() == 's':
				if err := engine.StopSound(loop.ID); err != nil {
					status = err.Error()
				} else {
					status = "loop stopped"
				}

			case key.Rune() == '-':
				loopVolume = max(0, loopVolume-0.1)
				if err := engine.UpdateLoopVolume(loop.ID, loopVolume, fadeSamples); err != nil {
					status = err.Error()
				} else {
					status = fmt.Sprintf("fading loop to %.1f", loopVolume)
				}

			case key.Rune() == '+' || key.Rune() == '=':
				loopVolume = min(1, loopVolume+0.1)
				if err := engine.UpdateLoopVolume(loop.ID, loopVolume, fadeSamples); err != nil {
					status = err.Error()
				} else {
					status = fmt.Sprintf("fading loop to %.1f", loopVolume)
				}

			case key.Rune() == 'm':
				if engine.IsMuted() {
					engine.UnmuteAll()
					status = "unmuted"
				} else {
					engine.MuteAll()
					status = "muted"
				}

			case key.Key() == tcell.KeyLeft:
				listenerX -= 0.5
				engine.SetListenerPosition(audio.Vector{X: listenerX, Z: listenerZ}, audio.Vector{Z: 1}, audio.Vector{Y: 1})
			case key.Key() == tcell.KeyRight:
				listenerX += 0.5
				engine.SetListenerPosition(audio.Vector{X: listenerX, Z: listenerZ}, audio.Vector{Z: 1}, audio.Vector{Y: 1})
			case key.Key() == tcell.KeyUp:
				listenerZ += 0.5
				engine.SetListenerPosition(audio.Vector{X: listenerX, Z: listenerZ}, audio.Vector{Z: 1}, audio.Vector{Y: 1})
			case key.Key() == tcell.KeyDown:
				listenerZ -= 0.5
				engine.SetListenerPosition(audio.Vector{X: listenerX, Z: listenerZ}, audio.Vector{Z: 1}, audio.Vector{Y: 1})
			}
		}
	}
}

func draw(screen tcell.Screen, sounds []audio.SoundInfo, engine *audio.Engine, status string, lx, lz float64) {
	screen.Clear()
	style := tcell.StyleDefault

	row := 0
	put := func(text string) {
		for col, r := range text {
			screen.SetContent(col, row, r, nil, style)
		}
		row++
	}

	put("audiodemo  q:quit  1-9:play  p:loop  s:stop  -/+:fade  m:mute  arrows:listener")
	row++
	for i, info := range sounds {
		marker := " "
		if engine.SoundIsPlaying(info.Key()) {
			marker = "*"
		}
		put(fmt.Sprintf(" %d %s %s", i+1, marker, info.Path))
	}
	row++
	put(fmt.Sprintf(" listener x=%.1f z=%.1f  muted=%v", lx, lz, engine.IsMuted()))
	put(" " + status)
	screen.Show()
}
