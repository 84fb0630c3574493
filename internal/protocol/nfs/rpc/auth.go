package rpc

import (
	"errors"
	"fmt"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// AUTH_UNIX limits (RFC 5531 Appendix A).
const (
	maxMachineNameLen = 255
	maxGIDs           = 16
)

// UnixAuth is a decoded AUTH_UNIX (AUTH_SYS) credential.
//
//	struct authsys_parms {
//	    unsigned int stamp;
//	    string machinename<255>;
//	    unsigned int uid;
//	    unsigned int gid;
//	    unsigned int gids<16>;
//	};
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// ParseUnixAuth decodes an AUTH_UNIX credential body.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, errors.New("empty AUTH_UNIX body")
	}

	d := xdr.NewDecoder(body)
	auth := &UnixAuth{}

	var err error
	if auth.Stamp, err = d.Uint32("stamp"); err != nil {
		return nil, fmt.Errorf("failed to read stamp: %w", err)
	}

	nameLen, err := d.Uint32("machine name length")
	if err != nil {
		return nil, fmt.Errorf("failed to read machine name: %w", err)
	}
	if nameLen > maxMachineNameLen {
		return nil, fmt.Errorf("machine name too long: %d bytes", nameLen)
	}
	name, err := d.Opaque("machine name", nameLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine name: %w", err)
	}
	auth.MachineName = string(name)
	d.SkipAvailable(xdr.Padding(nameLen))

	if auth.UID, err = d.Uint32("uid"); err != nil {
		return nil, fmt.Errorf("failed to read uid: %w", err)
	}
	if auth.GID, err = d.Uint32("gid"); err != nil {
		return nil, fmt.Errorf("failed to read gid: %w", err)
	}

	count, err := d.Uint32("gid count")
	if err != nil {
		return nil, fmt.Errorf("failed to read gids: %w", err)
	}
	if count > maxGIDs {
		return nil, fmt.Errorf("too many gids: %d", count)
	}
	auth.GIDs = make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		gid, err := d.Uint32("gid")
		if err != nil {
			return nil, fmt.Errorf("failed to read gid %d: %w", i, err)
		}
		auth.GIDs = append(auth.GIDs, gid)
	}

	return auth, nil
}

func (a *UnixAuth) String() string {
	return fmt.Sprintf("machine=%s uid=%d gid=%d gids=%v", a.MachineName, a.UID, a.GID, a.GIDs)
}
