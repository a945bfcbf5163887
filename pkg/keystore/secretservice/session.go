// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package secretservice

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	ss "github.com/zalando/go-keyring/secret_service"
)

const (
	serviceName = "org.freedesktop.secrets"
	ifaceItem   = "org.freedesktop.Secret.Item"
)

// session is an open secret session bound to the collection keys live in.
type session interface {
	// Unlock unlocks the collection, prompting the user when required.
	Unlock() error

	// CreateItem stores value as a new item with the given attributes.
	CreateItem(label string, attrs map[string]string, value []byte) error

	// SearchItems returns the items of the collection matching attrs.
	SearchItems(attrs map[string]string) ([]dbus.ObjectPath, error)

	// ItemProperty reads one org.freedesktop.Secret.Item property.
	ItemProperty(item dbus.ObjectPath, name string) (dbus.Variant, error)

	// Close closes the secret session.
	Close() error
}

// busSession is a session on the user's Secret Service daemon.
type busSession struct {
	svc        *ss.SecretService
	collection dbus.BusObject
	session    dbus.BusObject
}

// dialBus opens a plain secret session against the login collection.
func dialBus() (session, error) {
	svc, err := ss.NewSecretService()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	sess, err := svc.OpenSession()
	if err != nil {
		return nil, fmt.Errorf("open secret session: %w", err)
	}
	return &busSession{
		svc:        svc,
		collection: svc.GetLoginCollection(),
		session:    sess,
	}, nil
}

func (b *busSession) Unlock() error {
	if err := b.svc.Unlock(b.collection.Path()); err != nil {
		return fmt.Errorf("unlock %s: %w", b.collection.Path(), err)
	}
	return nil
}

func (b *busSession) CreateItem(label string, attrs map[string]string, value []byte) error {
	secret := ss.Secret{
		Session:     b.session.Path(),
		Parameters:  []byte{},
		Value:       value,
		ContentType: contentType,
	}
	if err := b.svc.CreateItem(b.collection, label, attrs, secret); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (b *busSession) SearchItems(attrs map[string]string) ([]dbus.ObjectPath, error) {
	paths, err := b.svc.SearchItems(b.collection, attrs)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return paths, nil
}

func (b *busSession) ItemProperty(item dbus.ObjectPath, name string) (dbus.Variant, error) {
	v, err := b.svc.Object(serviceName, item).GetProperty(ifaceItem + "." + name)
	if err != nil {
		return dbus.Variant{}, fmt.Errorf("read %s: %w", name, err)
	}
	return v, nil
}

// Close closes the secret session. The bus connection is shared by the
// process and stays open.
func (b *busSession) Close() error {
	return b.svc.Close(b.session)
}
