// Command surfbatch drives Connectome Workbench to separate HCP task CIFTI
// files into hemisphere metrics and resample them from fs_LR 32k onto the
// fsaverage4 3k mesh, across many subjects at once.
package main
