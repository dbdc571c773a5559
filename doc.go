/*
go-detlite runs real-time object detection over a live video stream.  Frames
are captured, resized and packed into a Model's input tensor, run through an
ONNX Runtime inference session and decoded into bounding boxes that are drawn
over the video.

Two Model families are supported, a grid based Tiny YOLOv2 detector trained on
Pascal VOC and a region proposal SSD MobileNet v1 detector trained on COCO.
Both filter their results down to a single class of interest (person).

The root package wraps the ONNX Runtime bindings.  Decoding lives in the
postprocess subpackage, frame packing in preprocess, the Model variants in
detector and the capture to render loop in stream.

See example code and usage in the example subdirectory.
*/
package detlite
