package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"falcon/interpreter-go/pkg/driver"
)

const gitDir = ".git"

// syncDir replaces dst with a copy of src, leaving out version control metadata.
func syncDir(fs afero.Fs, src, dst string) error {
	if err := fs.RemoveAll(dst); err != nil {
		return err
	}
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if info.IsDir() && info.Name() == gitDir {
			return filepath.SkipDir
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, path, target, info.Mode().Perm())
	})
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// dirChecksum hashes the relative path and contents of every file below root,
// skipping version control metadata.
func dirChecksum(fs afero.Fs, root string) (string, error) {
	h := sha256.New()
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := fs.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", errors.Wrapf(err, "checksum %s", root)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	return &gitFetcher{cacheDir: cacheDir}
}

// Fetch checks out the revision named by spec into the cache. The locked version
// is the commit for rev pins and "<tag-or-branch>@<commit>" otherwise.
func (g *gitFetcher) Fetch(name string, spec *driver.DependencySpec) (*resolvedPackage, error) {
	url := strings.TrimSpace(spec.Git)
	version, commit, err := g.checkout(name, url, spec)
	if err != nil {
		return nil, err
	}
	dir := driver.PackageDir(g.cacheDir, name, version)
	checksum, err := dirChecksum(afero.NewOsFs(), dir)
	if err != nil {
		return nil, err
	}
	return &resolvedPackage{
		pkg: &driver.LockedPackage{
			Name:     name,
			Version:  version,
			Source:   fmt.Sprintf("git+%s@%s", url, commit),
			Checksum: checksum,
		},
		dir: dir,
	}, nil
}

func (g *gitFetcher) checkout(name, url string, spec *driver.DependencySpec) (string, string, error) {
	revision, descriptor := gitRevisionFromSpec(spec)

	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		if _, err := os.Stat(driver.PackageDir(g.cacheDir, name, rev)); err == nil {
			return rev, rev, nil
		}
	}

	staging := filepath.Join(g.cacheDir, "pkg", "tmp")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", "", err
	}
	tmpDir, err := os.MkdirTemp(staging, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		cleanup()
		return "", "", errors.Wrapf(err, "git clone %s", url)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		cleanup()
		return "", "", errors.Wrapf(err, "resolve revision %s", revision)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := driver.PackageDir(g.cacheDir, name, version)
	if _, err := os.Stat(targetDir); err == nil {
		cleanup()
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		cleanup()
		return "", "", errors.Wrapf(err, "git checkout %s", revision)
	}
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		cleanup()
		return "", "", err
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		cleanup()
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return descriptor + "@" + commit
}

// gitRevisionFromSpec picks rev, then tag, then branch, then the remote HEAD.
func gitRevisionFromSpec(spec *driver.DependencySpec) (plumbing.Revision, string) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch), branch
	}
	return plumbing.Revision("HEAD"), "HEAD"
}
