package condor

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// excluded directories are left out of the sandbox wherever they appear.
var excluded = map[string]bool{
	"tmp":    true,
	"bin":    true,
	"condor": true,
	"histos": true,
	"plots":  true,
	"inputs": true,
	// version control
	".git": true,
	".svn": true,
	".hg":  true,
	".bzr": true,
	"CVS":  true,
}

// cacheTag marks a cache directory, skipped with its content.
const cacheTag = "CACHEDIR.TAG"

// WriteSandbox writes the CMSSW area at base as an xz-compressed tar archive
// whose entries are rooted at the base name of the area.
func WriteSandbox(w io.Writer, base string) error {
	base = filepath.Clean(base)
	root := filepath.Dir(base)

	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("condor: could not create xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != base {
			if excluded[d.Name()] {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, cacheTag)); err == nil {
				return filepath.SkipDir
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("condor: could not archive %q: %w", base, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("condor: could not close tar archive: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("condor: could not close xz stream: %w", err)
	}
	return nil
}
