package ti3d

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const sceneFileVersion = 1

// sceneFile is the on-disk scene shape: the store's columns as flat per-field
// sequences, indexed in parallel, with entities identified by their stable
// external id and parent links expressed as parent ids ("" = root). Mirroring
// the columnar layout keeps files diffable and load order deterministic.
type sceneFile struct {
	Version int      `yaml:"version"`
	IDs     []string `yaml:"ids"`
	Names   []string `yaml:"names"`
	Parents []string `yaml:"parents"`

	PosX []float64 `yaml:"pos_x"`
	PosY []float64 `yaml:"pos_y"`
	PosZ []float64 `yaml:"pos_z"`
	RotX []float64 `yaml:"rot_x"`
	RotY []float64 `yaml:"rot_y"`
	RotZ []float64 `yaml:"rot_z"`
	SclX []float64 `yaml:"scl_x"`
	SclY []float64 `yaml:"scl_y"`
	SclZ []float64 `yaml:"scl_z"`

	ColR []float64 `yaml:"col_r"`
	ColG []float64 `yaml:"col_g"`
	ColB []float64 `yaml:"col_b"`
	ColA []float64 `yaml:"col_a"`

	Mesh     []int32 `yaml:"mesh"`
	Material []int32 `yaml:"material"`

	Mass      []float64 `yaml:"mass"`
	PhysFlags []uint32  `yaml:"phys_flags"`
}

// SaveScene writes the current scene to a YAML file: every live entity's
// columns in slot order, with parent links resolved to stable ids.
func (e *Engine) SaveScene(path string) error {
	f := sceneFile{Version: sceneFileVersion}
	e.store.Each(func(ent Entity) {
		slot := ent.Slot
		f.IDs = append(f.IDs, e.store.ids[slot])
		f.Names = append(f.Names, e.store.names[slot])
		parentID := ""
		if p, ok := e.scene.Parent(ent); ok {
			parentID = e.store.ID(p)
		}
		f.Parents = append(f.Parents, parentID)
		f.PosX = append(f.PosX, e.store.posX[slot])
		f.PosY = append(f.PosY, e.store.posY[slot])
		f.PosZ = append(f.PosZ, e.store.posZ[slot])
		f.RotX = append(f.RotX, e.store.rotX[slot])
		f.RotY = append(f.RotY, e.store.rotY[slot])
		f.RotZ = append(f.RotZ, e.store.rotZ[slot])
		f.SclX = append(f.SclX, e.store.sclX[slot])
		f.SclY = append(f.SclY, e.store.sclY[slot])
		f.SclZ = append(f.SclZ, e.store.sclZ[slot])
		f.ColR = append(f.ColR, e.store.colR[slot])
		f.ColG = append(f.ColG, e.store.colG[slot])
		f.ColB = append(f.ColB, e.store.colB[slot])
		f.ColA = append(f.ColA, e.store.colA[slot])
		f.Mesh = append(f.Mesh, e.store.mesh[slot])
		f.Material = append(f.Material, e.store.material[slot])
		f.Mass = append(f.Mass, e.store.mass[slot])
		f.PhysFlags = append(f.PhysFlags, e.store.physFlags[slot])
	})

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scene %s: %w", path, err)
	}
	e.log.Info("scene saved", zap.String("path", path), zap.Int("entities", len(f.IDs)))
	return nil
}

// LoadScene replaces the engine's scene with the file's contents. The file is
// first materialized into a fresh store and forest; the live scene is swapped
// only after the whole file validates, so a malformed file leaves the prior
// state untouched.
func (e *Engine) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene %s: %w", path, err)
	}
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse scene %s: %w", path, err)
	}
	store, scene, err := f.materialize()
	if err != nil {
		// Prior state stays live; the half-built replacement is discarded.
		e.log.Warn("scene load abandoned", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("scene %s: %w", path, err)
	}

	e.store = store
	e.scene = scene
	e.notify(ChangeReset, None)
	e.log.Info("scene loaded", zap.String("path", path), zap.Int("entities", store.Len()))
	return nil
}

// materialize validates the file and builds a store and forest from it.
func (f *sceneFile) materialize() (*Store, *SceneGraph, error) {
	if f.Version != sceneFileVersion {
		return nil, nil, fmt.Errorf("unsupported scene version %d", f.Version)
	}
	n := len(f.IDs)
	if err := f.checkLengths(n); err != nil {
		return nil, nil, err
	}

	store := NewStore(n)
	scene := NewSceneGraph(store)
	byID := make(map[string]Entity, n)

	for i := 0; i < n; i++ {
		id := f.IDs[i]
		if id == "" {
			return nil, nil, fmt.Errorf("entity %d has an empty id", i)
		}
		if _, dup := byID[id]; dup {
			return nil, nil, fmt.Errorf("duplicate entity id %q", id)
		}
		ent := store.CreateWithID(f.Names[i], id)
		scene.Adopt(ent)
		byID[id] = ent

		slot := ent.Slot
		store.posX[slot], store.posY[slot], store.posZ[slot] = f.PosX[i], f.PosY[i], f.PosZ[i]
		store.rotX[slot], store.rotY[slot], store.rotZ[slot] = f.RotX[i], f.RotY[i], f.RotZ[i]
		store.sclX[slot], store.sclY[slot], store.sclZ[slot] = f.SclX[i], f.SclY[i], f.SclZ[i]
		store.colR[slot], store.colG[slot], store.colB[slot], store.colA[slot] = f.ColR[i], f.ColG[i], f.ColB[i], f.ColA[i]
		store.mesh[slot], store.material[slot] = f.Mesh[i], f.Material[i]
		store.mass[slot] = f.Mass[i]
		store.physFlags[slot] = f.PhysFlags[i]

		// Keep generated ids from colliding with loaded ones.
		var seq uint64
		if _, err := fmt.Sscanf(id, "ent-%d", &seq); err == nil && seq > store.nextID {
			store.nextID = seq
		}
	}

	// Parent links resolve in a second pass so order within the file does not
	// matter.
	for i := 0; i < n; i++ {
		pid := f.Parents[i]
		if pid == "" {
			continue
		}
		parent, ok := byID[pid]
		if !ok {
			return nil, nil, fmt.Errorf("entity %q references unknown parent %q", f.IDs[i], pid)
		}
		scene.Attach(byID[f.IDs[i]], parent)
	}
	return store, scene, nil
}

func (f *sceneFile) checkLengths(n int) error {
	lens := map[string]int{
		"names": len(f.Names), "parents": len(f.Parents),
		"pos_x": len(f.PosX), "pos_y": len(f.PosY), "pos_z": len(f.PosZ),
		"rot_x": len(f.RotX), "rot_y": len(f.RotY), "rot_z": len(f.RotZ),
		"scl_x": len(f.SclX), "scl_y": len(f.SclY), "scl_z": len(f.SclZ),
		"col_r": len(f.ColR), "col_g": len(f.ColG), "col_b": len(f.ColB), "col_a": len(f.ColA),
		"mesh": len(f.Mesh), "material": len(f.Material),
		"mass": len(f.Mass), "phys_flags": len(f.PhysFlags),
	}
	for field, l := range lens {
		if l != n {
			return fmt.Errorf("column %s has %d values, want %d", field, l, n)
		}
	}
	return nil
}
