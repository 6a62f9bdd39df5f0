// Package savefile loads Stellaris save text from plain files or zip
// containers.
package savefile

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gsmcwhirter/go-util/v7/deferutil"
	"github.com/gsmcwhirter/go-util/v7/errors"
)

// archiveExts are the extensions treated as zip containers. Stellaris
// writes .sav files that are plain zip archives.
var archiveExts = map[string]bool{
	".zip": true,
	".sav": true,
}

// archiveMembers are the member names probed inside a save archive, in
// preference order.
var archiveMembers = []string{"gamestate", "meta"}

// Load reads the save text at path. Archive extensions are opened as zip
// containers and the gamestate (or meta) member is returned; anything else
// is read as a flat text file. Invalid byte sequences are dropped rather
// than reported.
func Load(path string) (string, error) {
	if archiveExts[strings.ToLower(filepath.Ext(path))] {
		text, ok, err := loadArchiveMember(path)
		if err != nil {
			return "", err
		}

		if ok {
			return text, nil
		}

		// no known member; fall through to a flat read of the path
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "could not read save file", "path", path)
	}

	return decode(raw), nil
}

func loadArchiveMember(path string) (string, bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", false, errors.Wrap(err, "could not open save archive", "path", path)
	}
	defer deferutil.CheckDefer(zr.Close)

	for _, name := range archiveMembers {
		for _, f := range zr.File {
			if f.Name != name {
				continue
			}

			rc, err := f.Open()
			if err != nil {
				return "", false, errors.Wrap(err, "could not open archive member", "path", path, "member", name)
			}

			raw, err := io.ReadAll(rc)
			deferutil.CheckDefer(rc.Close)
			if err != nil {
				return "", false, errors.Wrap(err, "could not read archive member", "path", path, "member", name)
			}

			return decode(raw), true, nil
		}
	}

	return "", false, nil
}

func decode(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "")
}
