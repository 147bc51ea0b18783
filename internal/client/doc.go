// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client is the device agent and its command line.
//
// [NewApp] opens the local queue and the server adapter for this device;
// [NewRootCommand] exposes the queue, proofs, conflicts and sync passes as
// cobra commands. "run" keeps the device syncing in the foreground.
package client
