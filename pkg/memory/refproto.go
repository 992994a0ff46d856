package memory

// This file is the edge-triggered region-counter algorithm: every time a
// reference is created, moved or destroyed, LRC/PRC/SBRC are updated so
// that CombinedLRC reaching zero on a parentless region is exactly the
// moment nothing outside that region can ever reach it again.

// incLRC records a new direct reference from the local region into r.
// Crossing 0->1 is the edge that makes r (and, transitively, any ancestor
// chain counting on r) newly reachable, so it propagates up via incSBRC.
func incLRC(r *Region) {
	r.LRC++
	if r.CombinedLRC() == 1 {
		incSBRC(r)
	}
}

// incSBRC propagates a child region's 0->1 reachability transition up
// through the parent chain, stopping as soon as an ancestor was already
// reachable some other way (its CombinedLRC was already nonzero before this
// increment).
func incSBRC(r *Region) {
	for r.Parent != nil {
		r = r.Parent
		r.SBRC++
		if r.CombinedLRC() != 1 {
			return
		}
	}
}

// decLRC removes a direct local reference to r. If that was the last thing
// keeping r reachable (CombinedLRC hits 0), the loss of reachability
// propagates up through decSBRC; otherwise r may still be ready for
// collection on its own account (action).
func (h *Heap) decLRC(r *Region) {
	if r.LRC == 0 {
		h.abortf(r.ID.String(), "local reference count underflow")
	}
	r.LRC--
	if r.CombinedLRC() == 0 {
		h.decSBRC(r)
	} else {
		h.action(r)
	}
}

// decSBRC propagates a child region's loss of reachability up through the
// parent chain, stopping as soon as an ancestor is still reachable some
// other way. When it walks off the top of the chain (an unparented region)
// it offers that region to action, the one place collectability is decided.
func (h *Heap) decSBRC(r *Region) {
	for r.Parent != nil {
		r = r.Parent
		r.SBRC--
		if r.CombinedLRC() != 0 {
			return
		}
	}
	h.action(r)
}

// decPRC removes a reference held by r's parent on r's bridge. Once that
// count reaches zero the parent relationship itself is severed: if r still
// has other reasons to be reachable (its own CombinedLRC), that reachability
// no longer reaches the (former) parent, so decSBRC runs against the old
// parent; otherwise r has become completely unreachable and is handed to
// action directly, since it no longer has a parent to ask.
func (h *Heap) decPRC(r *Region) {
	if r.PRC == 0 {
		h.abortf(r.ID.String(), "parent reference count underflow")
	}
	r.PRC--
	if r.PRC != 0 {
		return
	}
	// decSBRC walks the decrement up starting at r.Parent, mirroring how
	// incSBRC walks the increment up starting at r.Parent (setParent). It
	// must run before r.Parent is cleared - afterwards there is no chain
	// left to walk.
	if r.CombinedLRC() != 0 {
		h.decSBRC(r)
		r.Parent = nil
	} else {
		r.Parent = nil
		h.action(r)
	}
}

// setParent records that p's content now holds a reference into r's bridge,
// making p the (unique) parent of r. A region can have at most one parent -
// attempting to reparent it is a region-DAG violation - and the parent
// chain can never be extended into a cycle.
func setParent(h *Heap, r, p *Region) {
	if r.LRC == 0 {
		h.abortf(r.ID.String(), "set_parent requires a local reference into the region")
	}
	r.PRC++

	if r.Parent == p {
		return
	}
	if r.Parent != nil {
		h.abortf(r.ID.String(), "region already has a parent: region DAGs are not supported")
	}
	for anc := p; anc != nil; anc = anc.Parent {
		if anc == r {
			h.abortf(r.ID.String(), "cycle created in region hierarchy")
		}
	}

	r.Parent = p
	incSBRC(r)
}

// action is the sole place a region is offered up for collection: it
// becomes eligible exactly when it has no local references and no parent,
// i.e. nothing anywhere can reach it anymore.
func (h *Heap) action(r *Region) {
	if r.LRC == 0 && r.Parent == nil {
		h.enqueueCollect(r)
	}
}

func (h *Heap) enqueueCollect(r *Region) {
	if r.State == StatePendingCollect || r.State == StateCollected {
		return
	}
	r.State = StatePendingCollect
	h.toCollect = append(h.toCollect, r)
	h.Logger.WithField("region", r.ID).Debug("region queued for collection")
}

// addRegionReference records that src_region's content now holds a
// reference to target. It is the single decision point for what kind of
// edge was just created: within the same region it is free; from Local
// directly into a region it is an LRC edge; absorbing a still-local object
// into a foreign region recurses through addToRegion; and crossing between
// two distinct non-local regions is only legal through target's bridge,
// making src_region its parent.
func (h *Heap) addRegionReference(srcRegion *Region, target *Object) {
	if target.IsImmutable() || target.IsCown() {
		return
	}
	targetRegion := regionOf(target)
	if srcRegion == targetRegion {
		return
	}
	if srcRegion == h.Local {
		if target != targetRegion.Bridge {
			h.abortf(target.Name(), "cannot reference into another region except through its bridge")
		}
		incLRC(targetRegion)
		return
	}
	if targetRegion == h.Local {
		h.addToRegion(srcRegion, target)
		return
	}
	if target != targetRegion.Bridge {
		h.abortf(target.Name(), "cannot reference into another region except through its bridge")
	}
	setParent(h, targetRegion, srcRegion)
}

// removeRegionReference is addRegionReference's inverse: same-region and
// immutable/cown edges are free; a Local-held reference drops the target
// region's LRC; anything else drops one of the target region's parent
// references.
func (h *Heap) removeRegionReference(srcRegion, targetRegion *Region) {
	if srcRegion == targetRegion || targetRegion == nil {
		return
	}
	if srcRegion == h.Local {
		h.decLRC(targetRegion)
		return
	}
	h.decPRC(targetRegion)
}

// AddReference records a new reference from src to target: target's
// reference count goes up, and the region bookkeeping for the edge that
// reference represents is updated. src may be nil to mean the reference is
// held directly by the local root (a variable binding with no containing
// object), which is otherwise indistinguishable from a reference held by an
// ordinary object allocated in the local region.
func (h *Heap) AddReference(src, target *Object) *Object {
	if target == nil {
		return nil
	}
	target.changeRC(1)

	srcRegion := h.Local
	if src != nil {
		if src.IsImmutable() || src.IsCown() {
			h.abortf(src.Name(), "cannot hold a mutable reference from an immutable or cown object")
		}
		srcRegion = regionOf(src)
	}
	h.addRegionReference(srcRegion, target)
	return target
}

// RemoveReference tears down the reference from src to oldTarget and
// cascades: whenever dropping a reference's count to exactly zero makes its
// own fields and prototype unreachable too, those are released in turn.
// Objects that only become garbage as part of a region-wide collection (a
// reference cycle with no path in from outside the region) are not touched
// here - Collect handles those once the owning region's CombinedLRC hits
// zero.
func (h *Heap) RemoveReference(src, oldTarget *Object) {
	regionOfOrLocal := func(o *Object) *Region {
		if o == nil {
			return h.Local
		}
		return regionOf(o)
	}

	start := edge{src: src, target: oldTarget}
	visit(start, func(e edge) bool {
		if e.target == nil {
			return false
		}
		rc, underflow := e.target.changeRC(-1)
		if underflow {
			h.abortf(e.target.Name(), "reference count underflow")
		}
		reachedZero := rc == 0
		h.removeRegionReference(regionOfOrLocal(e.src), regionOf(e.target))
		return reachedZero
	}, func(o *Object) {
		h.dealloc(o)
	})

	h.Collect()
}

// MoveReference repoints the reference target was reached through: it used
// to be reachable via src, now it is reachable via dst instead. Used when a
// field previously holding target is overwritten with another field's
// contents rather than with a value the mutator just produced (where
// AddReference/RemoveReference around the Set would double-count).
func (h *Heap) MoveReference(src, dst, target *Object) {
	if target == nil || target.IsImmutable() || target.IsCown() {
		return
	}
	srcRegion := regionOf(src)
	dstRegion := regionOf(dst)
	if srcRegion == dstRegion {
		return
	}
	targetRegion := regionOf(target)

	// Reparenting a bridge from one region to another is not the same as
	// tearing down one edge and building another: target never stops being
	// reachable, so there must be no intermediate state where its region
	// looks orphaned (CombinedLRC 0, no parent) - that would wrongly offer
	// it to Collect. PRC (still exactly one parent edge, just retargeted)
	// is untouched throughout. Whether targetRegion is currently
	// contributing to its old parent's SBRC chain depends on its own
	// CombinedLRC, not merely on having a parent - a region can keep a
	// parent (PRC-reachable) long after its own LRC/SBRC dropped back to 0,
	// at which point there is nothing live to move between chains.
	if target == targetRegion.Bridge && targetRegion.Parent == srcRegion {
		for anc := dstRegion; anc != nil; anc = anc.Parent {
			if anc == targetRegion {
				h.abortf(targetRegion.ID.String(), "cycle created in region hierarchy")
			}
		}
		contributing := targetRegion.CombinedLRC() != 0
		if contributing {
			h.decSBRC(targetRegion)
		}
		targetRegion.Parent = dstRegion
		if contributing {
			incSBRC(targetRegion)
		}
		return
	}

	// An ordinary (non-bridge) object can only ever have been reached
	// through its own region's content in the first place -
	// addRegionReference enforces that no other edge into a non-bridge
	// object is legal - so targetRegion is necessarily the region src's
	// content itself belongs to here. Moving it directly into dstRegion
	// is add_to_region's closure-absorption, generalized to a source
	// that is itself a foreign region rather than always the local one:
	// spec.md's S6 moves a plain object this way, out of one region's
	// membership and into another's, and the literal
	// add_reference/remove_reference composition below would otherwise
	// reject it as a non-bridge cross-region reference.
	if target != targetRegion.Bridge {
		h.migrateIntoRegion(targetRegion, dstRegion, target)
		return
	}

	h.removeRegionReference(srcRegion, targetRegion)
	h.addRegionReference(dstRegion, target)
}
