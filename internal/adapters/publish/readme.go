package publish

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"time"
)

// ReadmeTitle heads the generated README
const ReadmeTitle = "# Объединенные конфиги VPN"

// Status is what the README status table shows
type Status struct {
	// RawBase is the URL prefix raw files are served from, e.g.
	// https://github.com/owner/repo/raw/main
	RawBase string

	MergedPath    string
	WhitelistPath string
	SelectedPath  string

	Sources int
	Ranges  int

	Merged    int
	Whitelist int
	// Selected is -1 when there is no curated file
	Selected int

	UpdatedAt time.Time
}

// RenderReadme builds README.md with the status table. UpdatedAt is
// rendered as is, convert it to the display zone first
func RenderReadme(st Status) []byte {
	clock, date := st.UpdatedAt.Format("15:04"), st.UpdatedAt.Format("02.01.2006")

	var b bytes.Buffer
	b.WriteString(ReadmeTitle + "\n\n")
	b.WriteString("## 📊 Статус обновления\n\n")
	b.WriteString("| Файл | Описание | Конфигов | Время обновления | Дата |\n")
	b.WriteString("|------|----------|----------|------------------|------|\n")
	row := func(p, desc, count string) {
		fmt.Fprintf(&b, "| [`%s`](%s) | %s | %s | %s | %s |\n",
			path.Base(p), st.RawBase+"/"+p, desc, count, clock, date)
	}
	row(st.MergedPath, fmt.Sprintf("Все конфиги из %d источников", st.Sources), strconv.Itoa(st.Merged))
	row(st.WhitelistPath, fmt.Sprintf("Только конфиги из %d подсетей", st.Ranges), strconv.Itoa(st.Whitelist))
	if st.Selected >= 0 {
		row(st.SelectedPath, "Отборные админами конфиги, самый надежный список", strconv.Itoa(st.Selected))
	}
	b.WriteByte('\n')
	return b.Bytes()
}
