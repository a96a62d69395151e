// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package genemunge normalizes gene-expression matrices and removes
// unwanted technical variation from them.
//
// The core converts labeled samples x genes matrices among raw read
// counts, RPKM, TPM and centered log-ratio representations using a
// gene length table, and strips latent nuisance factors estimated
// from control genes (RUV2). Around it sit loaders for gene-info and
// tissue-reference tables, GCT and .npy matrix I/O, and one
// subcommand per operation; run the genemunge command with no
// arguments for the list.
package genemunge
