// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of jobs one after another as supervised child processes.
//
// A Runner launches a single job, streams its output line by line and enforces
// an optional timeout by terminating the child's process group. An Executor
// prepares every output directory, drives the Runner over the batch and
// decides whether a job outcome ends the batch. Results can be rendered as
// text or written as YAML.
package runbatch
