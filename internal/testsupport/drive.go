package testsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"drivemover/internal/remote"
)

// Move records one MoveItems call made against a FakeDrive.
type Move struct {
	IDs    []string
	Target remote.FolderID
}

type fakeFolder struct {
	id       remote.FolderID
	name     string
	parent   remote.FolderID
	children []remote.FolderID
}

type fakeFile struct {
	id     string
	name   string
	size   int64
	parent remote.FolderID
}

// FakeDrive is an in-memory remote.Client. Failures can be injected per
// operation through the exported hooks.
type FakeDrive struct {
	mu      sync.Mutex
	nextID  int
	folders map[remote.FolderID]*fakeFolder
	files   map[string]*fakeFile
	order   []string
	moves   []Move
	calls   map[string]int

	// ListSubfoldersErr and ListFilesErr fail listings of specific folders.
	ListSubfoldersErr map[remote.FolderID]error
	ListFilesErr      map[remote.FolderID]error
	// MoveErr fails every MoveItems call when set.
	MoveErr error
	// MoveResult, when set, decides the verdict for each move instead of moving.
	MoveResult func(ids []string, target remote.FolderID) remote.MoveResult
	// IdentityErr and Identity control AccountIdentity.
	IdentityErr error
	Identity    remote.Identity
}

var _ remote.Client = (*FakeDrive)(nil)

// NewFakeDrive returns a drive containing only the root folder.
func NewFakeDrive() *FakeDrive {
	return &FakeDrive{
		nextID:            100,
		folders:           map[remote.FolderID]*fakeFolder{remote.RootID: {id: remote.RootID}},
		files:             make(map[string]*fakeFile),
		calls:             make(map[string]int),
		ListSubfoldersErr: make(map[remote.FolderID]error),
		ListFilesErr:      make(map[remote.FolderID]error),
		Identity:          remote.Identity{Success: true, UserID: "1", UserName: "tester"},
	}
}

// MkdirAll creates every folder along path and returns the last one's ID.
func (d *FakeDrive) MkdirAll(path string) remote.FolderID {
	d.mu.Lock()
	defer d.mu.Unlock()
	current := remote.RootID
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		current = d.childLocked(current, segment)
	}
	return current
}

// AddFile creates folderPath if needed and stores a file in it.
func (d *FakeDrive) AddFile(folderPath, name string, size int64) string {
	parent := d.MkdirAll(folderPath)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := fmt.Sprintf("file-%d", d.nextID)
	d.files[id] = &fakeFile{id: id, name: name, size: size, parent: parent}
	d.order = append(d.order, id)
	return id
}

// FileNames returns the names of files directly inside folderID, sorted.
func (d *FakeDrive) FileNames(folderID remote.FolderID) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var names []string
	for _, id := range d.order {
		if f := d.files[id]; f.parent == folderID {
			names = append(names, f.name)
		}
	}
	sort.Strings(names)
	return names
}

// Moves returns the MoveItems calls seen so far.
func (d *FakeDrive) Moves() []Move {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Move(nil), d.moves...)
}

// Calls returns how many times op was invoked.
func (d *FakeDrive) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

func (d *FakeDrive) ListSubfolders(_ context.Context, folderID remote.FolderID) ([]remote.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["ListSubfolders"]++
	if err := d.ListSubfoldersErr[folderID]; err != nil {
		return nil, err
	}
	folder, ok := d.folders[folderID]
	if !ok {
		return nil, nil
	}
	out := make([]remote.Folder, 0, len(folder.children))
	for _, childID := range folder.children {
		child := d.folders[childID]
		out = append(out, remote.Folder{ID: child.id, Name: child.name, ParentID: folderID})
	}
	return out, nil
}

func (d *FakeDrive) ListFiles(_ context.Context, folderID remote.FolderID, recursive bool) ([]remote.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["ListFiles"]++
	if err := d.ListFilesErr[folderID]; err != nil {
		return nil, err
	}
	type pending struct {
		id   remote.FolderID
		path string
	}
	queue := []pending{{id: folderID}}
	var out []remote.File
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, id := range d.order {
			f := d.files[id]
			if f.parent != current.id {
				continue
			}
			out = append(out, remote.File{
				ID:       f.id,
				Name:     f.name,
				Size:     f.size,
				Path:     remote.JoinPath(current.path, f.name),
				ParentID: current.id,
			})
		}
		if !recursive {
			break
		}
		if folder, ok := d.folders[current.id]; ok {
			for _, childID := range folder.children {
				queue = append(queue, pending{id: childID, path: remote.JoinPath(current.path, d.folders[childID].name)})
			}
		}
	}
	return out, nil
}

func (d *FakeDrive) MoveItems(_ context.Context, ids []string, target remote.FolderID) (remote.MoveResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["MoveItems"]++
	d.moves = append(d.moves, Move{IDs: append([]string(nil), ids...), Target: target})
	if d.MoveErr != nil {
		return remote.MoveResult{}, d.MoveErr
	}
	if d.MoveResult != nil {
		result := d.MoveResult(ids, target)
		if !result.Success {
			return result, nil
		}
	}
	if _, ok := d.folders[target]; !ok {
		return remote.MoveResult{Success: false, ErrorMessage: "target folder not found", ErrorCode: 20004}, nil
	}
	for _, id := range ids {
		if f, ok := d.files[id]; ok {
			f.parent = target
		}
	}
	return remote.MoveResult{Success: true}, nil
}

func (d *FakeDrive) AccountIdentity(context.Context) (remote.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["AccountIdentity"]++
	if d.IdentityErr != nil {
		return remote.Identity{}, d.IdentityErr
	}
	return d.Identity, nil
}

func (d *FakeDrive) childLocked(parent remote.FolderID, name string) remote.FolderID {
	folder := d.folders[parent]
	for _, childID := range folder.children {
		if d.folders[childID].name == name {
			return childID
		}
	}
	d.nextID++
	id := remote.FolderID(fmt.Sprintf("%d", d.nextID))
	d.folders[id] = &fakeFolder{id: id, name: name, parent: parent}
	folder.children = append(folder.children, id)
	return id
}
