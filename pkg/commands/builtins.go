package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/thomasrohde/warpy/pkg/value"
)

// banner describes a zero-argument command that prints one fixed line.
type banner struct {
	name string
	line string
}

var banners = []banner{
	{"the_emperor_protects", "[LOG] The Emperor protects!"},
	{"for_the_emperor", "[IMPERIUM] For the Emperor!"},
	{"the_emperors_will_be_done", "[IMPERIUM] The Emperor's will is fulfilled."},
	{"fear_is_the_mind_killer", "[LOG] Fear suppressed."},
	{"ave_imperator", "Ave Imperator! Glory to the Emperor!"},
	{"we_are_one", "[UNITY] We are one."},
	{"WAAAGH", "[WAAAGH!] The orks rally!"},
	{"taste_chaos", "[CORRUPTION] Warp corrupts your soul."},
	{"the_path_is_set", "[ELDAR] The path is set. We proceed."},
	{"farseers_vision", "[ELDAR] The Farseer foresees..."},
	{"more_dakka", "[ORKS] More dakka! Fire everything!"},
	{"ork_cunning", "[ORKS] Cunning plan!"},
	{"blood_for_the_blood_god", "[CHAOS] Blood for the Blood God!"},
	{"let_the_galaxy_burn", "[CHAOS] The galaxy burns!"},
	{"only_in_death_does_duty_end", "[LOG] Only in death does duty end."},
	{"even_in_death_i_still_serve", "[LOG] Even in death, I still serve!"},
	{"no_pity_no_remorse_no_fear", "[LOG] No pity, no remorse, no fear!"},
	{"pain_is_temporary_glory_is_forever", "[LOG] Pain is temporary, glory is forever."},
	{"faith_is_my_shield", "[LOG] Faith is my shield!"},
	{"we_are_angels_of_death", "[LOG] We are the Angels of Death!"},
}

// RegisterDefaults adds the themed command set. Output goes to out; the input
// command reads lines from in.
func RegisterDefaults(r *Registry, out io.Writer, in io.Reader) {
	for _, b := range banners {
		r.Register(bannerCommand(out, b))
	}

	r.Register(Command{
		Name:    "burn_the_heretic",
		MaxArgs: 1,
		Doc:     "Announce the next heretic for the flames.",
		Fn: func(args []value.Value) (value.Value, error) {
			if len(args) == 0 || value.IsAbsent(args[0]) {
				return writeLine(out, "[FIB]")
			}
			return writeLine(out, "[FIB] "+value.String(args[0]))
		},
	})

	r.Register(Command{
		Name:    "purge_the_xenos",
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "Purge the named xenos.",
		Fn: func(args []value.Value) (value.Value, error) {
			return writeLine(out, fmt.Sprintf("[ACTION] Xenos purged: %s!", value.String(args[0])))
		},
	})

	r.Register(Command{
		Name:    "vox_cast",
		MaxArgs: 1,
		Doc:     "Broadcast a message over the vox.",
		Fn: func(args []value.Value) (value.Value, error) {
			msg := ""
			if len(args) > 0 && !value.IsAbsent(args[0]) {
				msg = value.String(args[0])
			}
			return writeLine(out, "[VOX] "+msg)
		},
	})

	r.Register(Command{
		Name: "servitor",
		Doc:  "Summon a servitor.",
		Fn: func(args []value.Value) (value.Value, error) {
			return value.NewString("servitor_instance"), nil
		},
	})

	r.Register(voiceCommand(out, in))
}

func bannerCommand(out io.Writer, b banner) Command {
	return Command{
		Name: b.name,
		Doc:  fmt.Sprintf("Print %q.", b.line),
		Fn: func(args []value.Value) (value.Value, error) {
			return writeLine(out, b.line)
		},
	}
}

// voiceCommand reads one line of input. The buffered reader is shared by all
// calls so that lines are not lost between reads.
func voiceCommand(out io.Writer, in io.Reader) Command {
	var reader *bufio.Reader
	if in != nil {
		reader = bufio.NewReader(in)
	}
	return Command{
		Name:    "hear_the_emperors_voice",
		MaxArgs: 1,
		Doc:     "Prompt for and return one line of input.",
		Fn: func(args []value.Value) (value.Value, error) {
			if len(args) > 0 && !value.IsAbsent(args[0]) {
				if _, err := io.WriteString(out, value.String(args[0])); err != nil {
					return nil, err
				}
			}
			if reader == nil {
				return interrupted(out)
			}
			line, err := reader.ReadString('\n')
			if err != nil {
				if errors.Is(err, io.EOF) && line != "" {
					return value.NewString(strings.TrimRight(line, "\r\n")), nil
				}
				if errors.Is(err, io.EOF) {
					return interrupted(out)
				}
				return nil, fmt.Errorf("reading input: %w", err)
			}
			return value.NewString(strings.TrimRight(line, "\r\n")), nil
		},
	}
}

func interrupted(out io.Writer) (value.Value, error) {
	if _, err := writeLine(out, "[LOG] Input interrupted. Returning empty string."); err != nil {
		return nil, err
	}
	return value.NewString(""), nil
}

func writeLine(out io.Writer, line string) (value.Value, error) {
	if _, err := fmt.Fprintln(out, line); err != nil {
		return nil, err
	}
	return value.NewAbsent(), nil
}
