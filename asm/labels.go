package asm

import "github.com/pkg/errors"

// defineLabel binds a ":"-terminated label to addr. A global label
// (anything not of the N$ form) becomes the new scope for subsequent
// local-label mangling; a local label (N$) mangles against the
// current scope and is an error outside of one (§4.4).
func defineLabel(labels map[string]uint32, scope *string, name string, addr uint32) error {
	key := name
	if isLocalLabelRef(name) {
		if *scope == "" {
			return errors.Wrapf(errLocalLabelNoScope, "%q", name)
		}
		key = mangleLocal(*scope, name[:len(name)-1])
	} else {
		*scope = name
	}

	if _, exists := labels[key]; exists {
		return errors.Wrapf(errLabelRedefined, "%q", name)
	}
	labels[key] = addr
	return nil
}

// defineAssignment binds "NAME = EXPR" (§4.4). Assignment targets are
// always plain identifiers: they don't participate in local-label
// scoping and don't change the current scope.
func defineAssignment(labels map[string]uint32, name string, value uint32) error {
	if _, exists := labels[name]; exists {
		return errors.Wrapf(errLabelRedefined, "%q", name)
	}
	labels[name] = value
	return nil
}
