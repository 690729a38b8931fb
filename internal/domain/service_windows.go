//go:build windows

package domain

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// printing3DService reaches the Windows.Graphics.Printing3D repair API
// through PowerShell, which can project WinRT types without cgo. The
// script loads the 3MF package, awaits RepairAsync, and saves the result.
type printing3DService struct {
	timeout time.Duration // zero means rely on the caller's context only
}

func newPlatformService(timeoutSeconds int) RepairService {
	return &printing3DService{timeout: time.Duration(timeoutSeconds) * time.Second}
}

// Available probes for a usable PowerShell host.
func (s *printing3DService) Available() bool {
	_, err := exec.LookPath("powershell.exe")
	return err == nil
}

const repairScript = `
$ErrorActionPreference = 'Stop'
[Windows.Graphics.Printing3D.Printing3D3MFPackage, Windows.Graphics.Printing3D, ContentType=WindowsRuntime] | Out-Null
[Windows.Storage.StorageFile, Windows.Storage, ContentType=WindowsRuntime] | Out-Null
Add-Type -AssemblyName System.Runtime.WindowsRuntime

function Await($task, $resultType) {
  $asTask = ([System.WindowsRuntimeSystemExtensions].GetMethods() |
    Where-Object { $_.Name -eq 'AsTask' -and $_.GetParameters().Count -eq 1 -and
      $_.GetParameters()[0].ParameterType.Name -eq 'IAsyncOperation` + "`" + `1' })[0]
  $t = $asTask.MakeGenericMethod($resultType).Invoke($null, @($task))
  $t.Wait()
  $t.Result
}

$inFile  = Await ([Windows.Storage.StorageFile]::GetFileFromPathAsync($args[0])) ([Windows.Storage.StorageFile])
$stream  = Await ($inFile.OpenAsync([Windows.Storage.FileAccessMode]::Read)) ([Windows.Storage.Streams.IRandomAccessStream])
$package = New-Object Windows.Graphics.Printing3D.Printing3D3MFPackage
$model   = Await ($package.LoadModelFromPackageAsync($stream)) ([Windows.Graphics.Printing3D.Printing3DModel])
$stream.Dispose()

$model.RepairAsync().AsTask().Wait()
$package.SaveModelToPackageAsync($model).AsTask().Wait()

$saved  = Await ($package.SaveAsync()) ([Windows.Storage.Streams.IRandomAccessStream])
$saved.Seek(0)
$reader = New-Object Windows.Storage.Streams.DataReader($saved)
$reader.LoadAsync($saved.Size).AsTask().Wait()
$bytes  = New-Object byte[] $saved.Size
$reader.ReadBytes($bytes)
[System.IO.File]::WriteAllBytes($args[1], $bytes)
`

// Repair runs the repair script against inputPath and writes outputPath.
func (s *printing3DService) Repair(ctx context.Context, inputPath, outputPath string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-Command", repairScript,
		inputPath, outputPath)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("repair service timed out: %w", ctx.Err())
		}
		return fmt.Errorf("repair service failed: %w (output: %s)", err, out)
	}

	return nil
}
