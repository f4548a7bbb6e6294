package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty text handler. Styles are bound
// to a renderer for the handler's output, so color is dropped automatically
// when the output is not a terminal.
type palette struct {
	key, str, num, boolean, time, source, msg lipgloss.Style
	levels                                    map[slog.Level]lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)

	level := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}

	return palette{
		key:     r.NewStyle().Foreground(lipgloss.Color("8")),
		str:     r.NewStyle().Foreground(lipgloss.Color("6")),
		num:     r.NewStyle().Foreground(lipgloss.Color("3")),
		boolean: r.NewStyle().Foreground(lipgloss.Color("2")),
		time:    r.NewStyle().Faint(true),
		source:  r.NewStyle().Foreground(lipgloss.Color("5")),
		msg:     r.NewStyle().Bold(true),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): level("4"),
			slog.Level(LevelDebug): level("4"),
			slog.Level(LevelInfo):  level("2"),
			slog.Level(LevelWarn):  level("3"),
			slog.Level(LevelError): level("1"),
		},
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.levels[slog.LevelError]
	case l >= slog.LevelWarn:
		return p.levels[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return p.levels[slog.LevelInfo]
	case l >= slog.LevelDebug:
		return p.levels[slog.LevelDebug]
	default:
		return p.levels[slog.Level(LevelTrace)]
	}
}

// prettyTextHandler writes one colorized line per record:
//
//	TIME LEVEL [SOURCE] MESSAGE key=value ...
type prettyTextHandler struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	style      palette
	mu         *sync.Mutex
	w          io.Writer
	prefix     string // group path for attrs added later
	attrs      []byte // preformatted attrs from WithAttrs
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts:       *opts,
		formatTime: formatTime,
		style:      makePalette(w),
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			buf.WriteString(h.style.time.Render(ts))
			buf.WriteByte(' ')
		}
	}

	name := strings.ToUpper(Level(r.Level).String())
	buf.WriteString(h.style.level(r.Level).Render(fmt.Sprintf("%-5s", name)))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			buf.WriteByte(' ')
			buf.WriteString(h.style.source.Render(
				filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)))
		}
	}

	buf.WriteByte(' ')
	buf.WriteString(h.style.msg.Render(r.Message))

	buf.Write(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	buf := bytes.NewBuffer(bytes.Clone(h.attrs))
	for _, a := range attrs {
		h.writeAttr(buf, h.prefix, a)
	}

	c := *h
	c.attrs = buf.Bytes()

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(nil, a)
	}

	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			h.writeAttr(buf, group, g)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.style.key.Render(prefix + a.Key + "="))
	h.writeValue(buf, a.Value)
}

func (h *prettyTextHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			s = strconv.Quote(s)
		}

		buf.WriteString(h.style.str.Render(s))

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		buf.WriteString(h.style.num.Render(v.String()))

	case slog.KindBool:
		buf.WriteString(h.style.boolean.Render(strconv.FormatBool(v.Bool())))

	case slog.KindTime:
		buf.WriteString(h.style.time.Render(h.formatTime(v.Time())))

	default:
		buf.WriteString(h.style.str.Render(fmt.Sprint(v.Any())))
	}
}
