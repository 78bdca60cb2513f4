// SPDX-License-Identifier: MIT
package render

import "errors"

type multi []Surface

// Multi fans every update out to all surfaces. The display counts as closed
// as soon as any member reports ErrDisplayClosed.
func Multi(surfaces ...Surface) Surface {
	if len(surfaces) == 1 {
		return surfaces[0]
	}
	return multi(surfaces)
}

func (m multi) SetLines(id string, s Series) {
	for _, sf := range m {
		sf.SetLines(id, s)
	}
}

func (m multi) SetMesh(mesh Mesh) {
	for _, sf := range m {
		sf.SetMesh(mesh)
	}
}

func (m multi) Flush() error {
	var errs []error
	closed := false
	for _, sf := range m {
		err := sf.Flush()
		switch {
		case err == nil:
		case errors.Is(err, ErrDisplayClosed):
			closed = true
		default:
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if closed {
		return ErrDisplayClosed
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, sf := range m {
		errs = append(errs, sf.Close())
	}
	return errors.Join(errs...)
}
