package trackmap

import (
	"fmt"
	"sync"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
)

// Key is the name under which a mapping string is stored in ROOT files.
const Key = "TrackMapping"

// DefaultVars is the mapping used when none was provided.
const DefaultVars = "pt,theta,phi,chi2perNDF,posx,posy,posz,covmat," +
	"posDCAx,posDCAy,TPCncls,ID,TPCnclsF,TPCNCrossedRows," +
	"ITSsignal,TPCsignal,TPCmomentum,TPCTgl,TOFsignal,integratedLength," +
	"FilterMap,TOFBunchCrossing"

var global struct {
	sync.Mutex
	m *Mapping
}

// Init creates the process-wide mapping from vars.
// Once set, the mapping never changes: a later call returns the existing
// mapping, together with ErrAlreadyInitialized when vars describe a
// different layout.
func Init(vars string) (*Mapping, error) {
	global.Lock()
	defer global.Unlock()

	if global.m != nil {
		if vars != global.m.str {
			cur, err := New(vars)
			if err != nil || cur.str != global.m.str {
				return global.m, ErrAlreadyInitialized
			}
		}
		return global.m, nil
	}

	m, err := New(vars)
	if err != nil {
		return nil, err
	}
	global.m = m
	return m, nil
}

// Instance returns the process-wide mapping, initializing it with
// DefaultVars if nothing was set.
func Instance() *Mapping {
	global.Lock()
	defer global.Unlock()

	if global.m == nil {
		m, err := New(DefaultVars)
		if err != nil {
			panic(fmt.Errorf("trackmap: invalid default mapping: %w", err))
		}
		global.m = m
	}
	return global.m
}

// LoadFile initializes the process-wide mapping from the mapping string
// stored in a ROOT file.
func LoadFile(fname string) (*Mapping, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	vars, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("could not read track mapping from %q: %w", fname, err)
	}
	return Init(vars)
}

// Read returns the mapping string stored in dir.
func Read(dir riofs.Directory) (string, error) {
	obj, err := dir.Get(Key)
	if err != nil {
		return "", err
	}
	str, ok := obj.(root.ObjString)
	if !ok {
		return "", fmt.Errorf("trackmap: %q is a %s, not a TObjString", Key, obj.Class())
	}
	return str.String(), nil
}

// Write stores the mapping string in dir.
func (m *Mapping) Write(dir riofs.Directory) error {
	return dir.Put(Key, rbase.NewObjString(m.str))
}
